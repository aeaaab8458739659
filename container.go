package xmss

import (
	"os"
	"path/filepath"

	"github.com/cespare/xxhash"
	"github.com/edsrzf/mmap-go"
	"github.com/hashicorp/go-multierror"
	"github.com/nightlyone/lockfile"
)

// A PrivateKeyContainer has two tasks
//
//  1. It has to store the XMSS[MT] secret key and the sequence number of
//     the first unused signature.
//  2. It has to cache the precomputed subtrees to increase signing
//     performance.
type PrivateKeyContainer interface {
	// Reset (or initialize) the container with the given secret key
	// (skSeed ‖ skPrf ‖ pubSeed) and parameters.  Also resets the
	// subtree cache.
	Reset(secretKey []byte, params Params) Error

	// Returns the parameters of the key stored in the container and nil
	// if the container is not initialized.
	Initialized() *Params

	// Returns whether the subtree cache is ready for use.
	CacheInitialized() bool

	// Returns the buffer for the subtree with the given address.  If the
	// subtree was not cached yet, a zeroed buffer of
	// params.CachedSubTreeSize() bytes is allocated for it and exists is
	// false.  The buffer stays valid until the subtree is dropped.
	GetSubTree(sta SubTreeAddress) (buf []byte, exists bool, err Error)

	// Returns whether the given subtree is cached.
	HasSubTree(sta SubTreeAddress) bool

	// Lists the addresses of the cached subtrees.
	ListSubTrees() ([]SubTreeAddress, Error)

	// Drops the given subtree from the cache.  Dropping a subtree that
	// is not cached is not an error.
	DropSubTree(sta SubTreeAddress) Error

	// Returns the sequence number of the first unused signature and the
	// number of signatures that might have been lost by a crash after
	// BorrowSeqNos() without a matching SetSeqNo().
	GetSeqNo() (seqNo SignatureSeqNo, lostSigs uint32, err Error)

	// Sets the sequence number of the first unused signature.  Clears
	// the possibly-lost record left by BorrowSeqNos().
	SetSeqNo(seqNo SignatureSeqNo) Error

	// Moves the stored sequence number the given amount ahead and
	// records that the sequence numbers in between might get lost if no
	// SetSeqNo() follows.  Returns the first sequence number of the
	// borrowed range.  The caller can use the borrowed sequence numbers
	// freely and should call SetSeqNo() later to record how many it
	// actually used.
	BorrowSeqNos(amount uint32) (SignatureSeqNo, Error)

	// Returns the stored secret key (skSeed ‖ skPrf ‖ pubSeed).
	GetPrivateKey() ([]byte, Error)

	// Flushes the cache, releases the container and wipes the in-memory
	// copy of the secret key.
	Close() Error
}

// PrivateKeyContainer that keeps everything in memory.  A process crash
// loses the key itself, not just signatures, so this is only suitable for
// tests and for short-lived keys.
type memContainer struct {
	params   *Params
	sk       []byte
	seqNo    SignatureSeqNo
	lost     uint32
	subTrees map[SubTreeAddress][]byte
}

// Creates an in-memory PrivateKeyContainer.
func NewMemPrivateKeyContainer() PrivateKeyContainer {
	return &memContainer{}
}

func (ctr *memContainer) Reset(secretKey []byte, params Params) Error {
	if len(secretKey) != params.PrivateKeySize() {
		return errorf(InvalidInput,
			"secret key should be %d bytes (and is %d)",
			params.PrivateKeySize(), len(secretKey))
	}
	paramsCopy := params
	ctr.params = &paramsCopy
	ctr.sk = append([]byte(nil), secretKey...)
	ctr.seqNo = 0
	ctr.lost = 0
	ctr.subTrees = make(map[SubTreeAddress][]byte)
	return nil
}

func (ctr *memContainer) Initialized() *Params {
	return ctr.params
}

func (ctr *memContainer) CacheInitialized() bool {
	return ctr.subTrees != nil
}

func (ctr *memContainer) GetSubTree(sta SubTreeAddress) ([]byte, bool, Error) {
	if ctr.params == nil {
		return nil, false, errorf(InvalidInput, "container is not initialized")
	}
	buf, ok := ctr.subTrees[sta]
	if ok {
		return buf, true, nil
	}
	buf = make([]byte, ctr.params.CachedSubTreeSize())
	ctr.subTrees[sta] = buf
	return buf, false, nil
}

func (ctr *memContainer) HasSubTree(sta SubTreeAddress) bool {
	_, ok := ctr.subTrees[sta]
	return ok
}

func (ctr *memContainer) ListSubTrees() ([]SubTreeAddress, Error) {
	if ctr.subTrees == nil {
		return nil, errorf(InvalidInput, "container is not initialized")
	}
	ret := make([]SubTreeAddress, 0, len(ctr.subTrees))
	for sta := range ctr.subTrees {
		ret = append(ret, sta)
	}
	return ret, nil
}

func (ctr *memContainer) DropSubTree(sta SubTreeAddress) Error {
	if buf, ok := ctr.subTrees[sta]; ok {
		wipe(buf)
		delete(ctr.subTrees, sta)
	}
	return nil
}

func (ctr *memContainer) GetSeqNo() (SignatureSeqNo, uint32, Error) {
	if ctr.params == nil {
		return 0, 0, errorf(InvalidInput, "container is not initialized")
	}
	return ctr.seqNo, ctr.lost, nil
}

func (ctr *memContainer) SetSeqNo(seqNo SignatureSeqNo) Error {
	if ctr.params == nil {
		return errorf(InvalidInput, "container is not initialized")
	}
	ctr.seqNo = seqNo
	ctr.lost = 0
	return nil
}

func (ctr *memContainer) BorrowSeqNos(amount uint32) (SignatureSeqNo, Error) {
	if ctr.params == nil {
		return 0, errorf(InvalidInput, "container is not initialized")
	}
	ret := ctr.seqNo
	ctr.seqNo += SignatureSeqNo(amount)
	ctr.lost += amount
	return ret, nil
}

func (ctr *memContainer) GetPrivateKey() ([]byte, Error) {
	if ctr.params == nil {
		return nil, errorf(InvalidInput, "container is not initialized")
	}
	return append([]byte(nil), ctr.sk...), nil
}

func (ctr *memContainer) Close() Error {
	wipe(ctr.sk)
	for _, buf := range ctr.subTrees {
		wipe(buf)
	}
	ctr.subTrees = nil
	ctr.params = nil
	return nil
}

// Layout of the key file of an fsContainer:
//
//   0:8      magic
//   8:12     version (big endian)
//   12:20    parameters, see Params.writeInto()
//   20:28    sequence number of the first unused signature (big endian)
//   28:32    possibly-lost record left by BorrowSeqNos (big endian)
//   32:32+3n secret key (skSeed ‖ skPrf ‖ pubSeed)
//   +8       xxhash of everything before it (big endian)
const (
	keyFileMagic  = "xmss-sk\x00"
	keyOffVersion = 8
	keyOffParams  = 12
	keyOffSeqNo   = 20
	keyOffBorrow  = 28
	keyOffSk      = 32

	containerVersion = 1
)

// Layout of the header of the cache file of an fsContainer:
//
//   0:8    magic
//   8:12   version (big endian)
//   12:16  size of a cached subtree (big endian)
//   16:20  size of a slot; a multiple of the page size (big endian)
//   20:24  offset of the first slot (big endian)
//   24:28  number of slots (big endian)
//
// Each slot holds the 12 byte address of its subtree, a big endian uint32
// that is 1 when the slot is in use, and the subtree buffer.  Slots are
// memory-mapped one by one: an existing mapping, and so a subtree buffer
// handed out earlier, survives the file growing behind it.
const (
	cacheFileMagic     = "xmss-ct\x00"
	cacheOffVersion    = 8
	cacheOffSubTree    = 12
	cacheOffSlotSize   = 16
	cacheOffSlotStart  = 20
	cacheOffNumSlots   = 24
	cacheHeaderSize    = 28
	cacheSlotMetaBytes = 16
)

// PrivateKeyContainer backed by three files:
//
//   path/to/key        contains the secret key and signature sequence number
//   path/to/key.lock   a lockfile
//   path/to/key.cache  cached subtrees
type fsContainer struct {
	flock       lockfile.Lockfile // file lock
	path        string            // absolute path of the key file
	params      *Params
	keyBuf      []byte // in-memory copy of the key file
	keyFile     *os.File
	cacheFile   *os.File
	cacheOk     bool
	subTreeSize int
	slotSize    int
	slotStart   int
	numSlots    int
	index       map[SubTreeAddress]int // slot of each cached subtree
	free        []int                  // slots whose subtree was dropped
	maps        map[int]mmap.MMap      // mapped slots
	closed      bool
}

// Opens (or creates) a PrivateKeyContainer backed by the filesystem.
// Fails with a Locked() error if another process holds the container.
func OpenFSPrivateKeyContainer(path string) (PrivateKeyContainer, Error) {
	ctr := fsContainer{
		maps: make(map[int]mmap.MMap),
	}
	var err error

	ctr.path, err = filepath.Abs(path)
	if err != nil {
		return nil, wrapErrorf(InvalidInput, err,
			"could not turn %s into an absolute path", path)
	}

	lockFilePath := ctr.path + ".lock"
	ctr.flock, err = lockfile.New(lockFilePath)
	if err != nil {
		return nil, wrapErrorf(StorageError, err,
			"failed to create lockfile %s", lockFilePath)
	}

	err = ctr.flock.TryLock()
	if err != nil {
		if _, ok := err.(interface {
			Temporary() bool
		}); ok {
			err2 := wrapErrorf(StorageError, err, "%s is locked", path)
			err2.locked = true
			return nil, err2
		}
		return nil, wrapErrorf(StorageError, err,
			"failed to acquire lock on %s", lockFilePath)
	}

	if err2 := ctr.open(); err2 != nil {
		ctr.flock.Unlock()
		return nil, err2
	}
	return &ctr, nil
}

// Loads the key file, if there is one, and opens the subtree cache.
func (ctr *fsContainer) open() Error {
	f, err := os.OpenFile(ctr.path, os.O_RDWR, 0600)
	if os.IsNotExist(err) {
		return nil // fresh container; Reset() will create the files
	}
	if err != nil {
		return wrapErrorf(StorageError, err, "failed to open %s", ctr.path)
	}
	ctr.keyFile = f

	fi, err := f.Stat()
	if err != nil {
		return wrapErrorf(StorageError, err, "failed to stat %s", ctr.path)
	}
	buf := make([]byte, fi.Size())
	if _, err = f.ReadAt(buf, 0); err != nil {
		return wrapErrorf(StorageError, err, "failed to read %s", ctr.path)
	}

	if len(buf) < keyOffSk+8 || string(buf[:8]) != keyFileMagic {
		return errorf(StorageError, "%s is not a key file", ctr.path)
	}
	if decodeUint64(buf[keyOffVersion:keyOffVersion+4]) != containerVersion {
		return errorf(StorageError, "%s: unsupported version", ctr.path)
	}
	stored := decodeUint64(buf[len(buf)-8:])
	if xxhash.Sum64(buf[:len(buf)-8]) != stored {
		return errorf(StorageError, "%s: checksum mismatch", ctr.path)
	}

	params, err2 := paramsFromBytes(buf[keyOffParams : keyOffParams+paramsBufSize])
	if err2 != nil {
		return wrapErrorf(StorageError, err2, "%s: bad parameters", ctr.path)
	}
	if len(buf) != keyOffSk+params.PrivateKeySize()+8 {
		return errorf(StorageError, "%s has the wrong size", ctr.path)
	}
	ctr.params = params
	ctr.keyBuf = buf

	if err2 := ctr.openCache(); err2 != nil {
		// The cache is only a cache: rebuild it rather than fail.
		log.Logf("open(): resetting subtree cache: %v", err2)
		return ctr.resetCache()
	}
	return nil
}

// Writes the in-memory copy of the key file, with a fresh checksum, to disk.
func (ctr *fsContainer) writeKeyBuf() Error {
	encodeUint64Into(xxhash.Sum64(ctr.keyBuf[:len(ctr.keyBuf)-8]),
		ctr.keyBuf[len(ctr.keyBuf)-8:])
	if _, err := ctr.keyFile.WriteAt(ctr.keyBuf, 0); err != nil {
		return wrapErrorf(StorageError, err, "failed to write %s", ctr.path)
	}
	if err := ctr.keyFile.Sync(); err != nil {
		return wrapErrorf(StorageError, err, "failed to sync %s", ctr.path)
	}
	return nil
}

func (ctr *fsContainer) Reset(secretKey []byte, params Params) Error {
	if len(secretKey) != params.PrivateKeySize() {
		return errorf(InvalidInput,
			"secret key should be %d bytes (and is %d)",
			params.PrivateKeySize(), len(secretKey))
	}

	if ctr.keyFile == nil {
		f, err := os.OpenFile(ctr.path, os.O_RDWR|os.O_CREATE, 0600)
		if err != nil {
			return wrapErrorf(StorageError, err,
				"failed to create %s", ctr.path)
		}
		ctr.keyFile = f
	}
	if err := ctr.keyFile.Truncate(0); err != nil {
		return wrapErrorf(StorageError, err, "failed to truncate %s", ctr.path)
	}

	paramsCopy := params
	ctr.params = &paramsCopy
	ctr.keyBuf = make([]byte, keyOffSk+len(secretKey)+8)
	copy(ctr.keyBuf, keyFileMagic)
	encodeUint64Into(containerVersion,
		ctr.keyBuf[keyOffVersion:keyOffVersion+4])
	params.writeInto(ctr.keyBuf[keyOffParams : keyOffParams+paramsBufSize])
	copy(ctr.keyBuf[keyOffSk:], secretKey)
	if err := ctr.writeKeyBuf(); err != nil {
		return err
	}

	return ctr.resetCache()
}

func (ctr *fsContainer) Initialized() *Params {
	return ctr.params
}

func (ctr *fsContainer) CacheInitialized() bool {
	return ctr.cacheOk
}

func (ctr *fsContainer) GetSeqNo() (SignatureSeqNo, uint32, Error) {
	if ctr.params == nil {
		return 0, 0, errorf(InvalidInput, "container is not initialized")
	}
	return SignatureSeqNo(decodeUint64(ctr.keyBuf[keyOffSeqNo : keyOffSeqNo+8])),
		uint32(decodeUint64(ctr.keyBuf[keyOffBorrow : keyOffBorrow+4])), nil
}

func (ctr *fsContainer) SetSeqNo(seqNo SignatureSeqNo) Error {
	if ctr.params == nil {
		return errorf(InvalidInput, "container is not initialized")
	}
	encodeUint64Into(uint64(seqNo), ctr.keyBuf[keyOffSeqNo:keyOffSeqNo+8])
	encodeUint64Into(0, ctr.keyBuf[keyOffBorrow:keyOffBorrow+4])
	return ctr.writeKeyBuf()
}

func (ctr *fsContainer) BorrowSeqNos(amount uint32) (SignatureSeqNo, Error) {
	if ctr.params == nil {
		return 0, errorf(InvalidInput, "container is not initialized")
	}
	seqNo := SignatureSeqNo(decodeUint64(
		ctr.keyBuf[keyOffSeqNo : keyOffSeqNo+8]))
	lost := uint32(decodeUint64(ctr.keyBuf[keyOffBorrow : keyOffBorrow+4]))
	encodeUint64Into(uint64(seqNo)+uint64(amount),
		ctr.keyBuf[keyOffSeqNo:keyOffSeqNo+8])
	encodeUint64Into(uint64(lost)+uint64(amount),
		ctr.keyBuf[keyOffBorrow:keyOffBorrow+4])
	if err := ctr.writeKeyBuf(); err != nil {
		return 0, err
	}
	return seqNo, nil
}

func (ctr *fsContainer) GetPrivateKey() ([]byte, Error) {
	if ctr.params == nil {
		return nil, errorf(InvalidInput, "container is not initialized")
	}
	return append([]byte(nil),
		ctr.keyBuf[keyOffSk:len(ctr.keyBuf)-8]...), nil
}

func (ctr *fsContainer) cachePath() string {
	return ctr.path + ".cache"
}

// Creates a fresh, empty subtree cache for the current parameters.
func (ctr *fsContainer) resetCache() Error {
	ctr.dropMappings()
	if ctr.cacheFile != nil {
		ctr.cacheFile.Close()
		ctr.cacheFile = nil
	}
	ctr.cacheOk = false

	f, err := os.OpenFile(ctr.cachePath(), os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return wrapErrorf(StorageError, err,
			"failed to create %s", ctr.cachePath())
	}
	if err = f.Truncate(0); err != nil {
		f.Close()
		return wrapErrorf(StorageError, err,
			"failed to truncate %s", ctr.cachePath())
	}

	pageSize := os.Getpagesize()
	ctr.subTreeSize = ctr.params.CachedSubTreeSize()
	ctr.slotSize = pageSize *
		((cacheSlotMetaBytes + ctr.subTreeSize + pageSize - 1) / pageSize)
	ctr.slotStart = pageSize *
		((cacheHeaderSize + pageSize - 1) / pageSize)
	ctr.numSlots = 0
	ctr.index = make(map[SubTreeAddress]int)
	ctr.free = nil
	ctr.cacheFile = f

	header := make([]byte, cacheHeaderSize)
	copy(header, cacheFileMagic)
	encodeUint64Into(containerVersion, header[cacheOffVersion:cacheOffVersion+4])
	encodeUint64Into(uint64(ctr.subTreeSize), header[cacheOffSubTree:cacheOffSubTree+4])
	encodeUint64Into(uint64(ctr.slotSize), header[cacheOffSlotSize:cacheOffSlotSize+4])
	encodeUint64Into(uint64(ctr.slotStart), header[cacheOffSlotStart:cacheOffSlotStart+4])
	encodeUint64Into(0, header[cacheOffNumSlots:cacheOffNumSlots+4])
	if _, err = f.WriteAt(header, 0); err != nil {
		return wrapErrorf(StorageError, err,
			"failed to write %s", ctr.cachePath())
	}
	ctr.cacheOk = true
	return nil
}

// Opens an existing subtree cache and rebuilds the in-memory index.
func (ctr *fsContainer) openCache() Error {
	f, err := os.OpenFile(ctr.cachePath(), os.O_RDWR, 0600)
	if err != nil {
		return wrapErrorf(StorageError, err,
			"failed to open %s", ctr.cachePath())
	}

	header := make([]byte, cacheHeaderSize)
	if _, err = f.ReadAt(header, 0); err != nil {
		f.Close()
		return wrapErrorf(StorageError, err,
			"failed to read %s", ctr.cachePath())
	}
	if string(header[:8]) != cacheFileMagic ||
		decodeUint64(header[cacheOffVersion:cacheOffVersion+4]) != containerVersion {
		f.Close()
		return errorf(StorageError, "%s is not a cache file", ctr.cachePath())
	}

	subTreeSize := int(decodeUint64(header[cacheOffSubTree : cacheOffSubTree+4]))
	slotSize := int(decodeUint64(header[cacheOffSlotSize : cacheOffSlotSize+4]))
	slotStart := int(decodeUint64(header[cacheOffSlotStart : cacheOffSlotStart+4]))
	numSlots := int(decodeUint64(header[cacheOffNumSlots : cacheOffNumSlots+4]))

	pageSize := os.Getpagesize()
	if subTreeSize != ctr.params.CachedSubTreeSize() ||
		slotSize < cacheSlotMetaBytes+subTreeSize ||
		slotSize%pageSize != 0 || slotStart%pageSize != 0 {
		// Wrong parameters or created on a system with another page
		// size; treat as uninitialized.
		f.Close()
		return errorf(StorageError, "%s does not fit the key", ctr.cachePath())
	}

	ctr.subTreeSize = subTreeSize
	ctr.slotSize = slotSize
	ctr.slotStart = slotStart
	ctr.numSlots = numSlots
	ctr.index = make(map[SubTreeAddress]int)
	ctr.free = nil
	ctr.cacheFile = f

	meta := make([]byte, cacheSlotMetaBytes)
	for slot := 0; slot < numSlots; slot++ {
		if _, err = f.ReadAt(meta, ctr.slotOffset(slot)); err != nil {
			return wrapErrorf(StorageError, err,
				"failed to read %s", ctr.cachePath())
		}
		if decodeUint64(meta[12:16]) != 1 {
			ctr.free = append(ctr.free, slot)
			continue
		}
		ctr.index[subTreeAddressFromBytes(meta[:12])] = slot
	}
	ctr.cacheOk = true
	return nil
}

func (ctr *fsContainer) slotOffset(slot int) int64 {
	return int64(ctr.slotStart) + int64(slot)*int64(ctr.slotSize)
}

// Memory-maps the given slot, if it isn't already.
func (ctr *fsContainer) mapSlot(slot int) (mmap.MMap, Error) {
	if m, ok := ctr.maps[slot]; ok {
		return m, nil
	}
	m, err := mmap.MapRegion(ctr.cacheFile, ctr.slotSize,
		mmap.RDWR, 0, ctr.slotOffset(slot))
	if err != nil {
		return nil, wrapErrorf(AllocationFailure, err,
			"failed to map slot %d of %s", slot, ctr.cachePath())
	}
	ctr.maps[slot] = m
	return m, nil
}

func (ctr *fsContainer) GetSubTree(sta SubTreeAddress) ([]byte, bool, Error) {
	if ctr.params == nil || !ctr.cacheOk {
		return nil, false, errorf(InvalidInput, "container is not initialized")
	}

	if slot, ok := ctr.index[sta]; ok {
		m, err := ctr.mapSlot(slot)
		if err != nil {
			return nil, false, err
		}
		return m[cacheSlotMetaBytes : cacheSlotMetaBytes+ctr.subTreeSize],
			true, nil
	}

	var slot int
	if len(ctr.free) > 0 {
		slot = ctr.free[len(ctr.free)-1]
		ctr.free = ctr.free[:len(ctr.free)-1]
	} else {
		slot = ctr.numSlots
		newSize := ctr.slotOffset(slot) + int64(ctr.slotSize)
		if err := ctr.cacheFile.Truncate(newSize); err != nil {
			return nil, false, wrapErrorf(AllocationFailure, err,
				"failed to grow %s to %d bytes", ctr.cachePath(), newSize)
		}
		ctr.numSlots++
		var numBuf [4]byte
		encodeUint64Into(uint64(ctr.numSlots), numBuf[:])
		if _, err := ctr.cacheFile.WriteAt(numBuf[:],
			cacheOffNumSlots); err != nil {
			return nil, false, wrapErrorf(StorageError, err,
				"failed to write %s", ctr.cachePath())
		}
	}

	m, err := ctr.mapSlot(slot)
	if err != nil {
		return nil, false, err
	}
	buf := m[cacheSlotMetaBytes : cacheSlotMetaBytes+ctr.subTreeSize]
	wipe(buf)
	copy(m[:12], sta.Bytes())
	encodeUint64Into(1, m[12:16])
	ctr.index[sta] = slot
	return buf, false, nil
}

func (ctr *fsContainer) HasSubTree(sta SubTreeAddress) bool {
	_, ok := ctr.index[sta]
	return ok
}

func (ctr *fsContainer) ListSubTrees() ([]SubTreeAddress, Error) {
	if !ctr.cacheOk {
		return nil, errorf(InvalidInput, "container is not initialized")
	}
	ret := make([]SubTreeAddress, 0, len(ctr.index))
	for sta := range ctr.index {
		ret = append(ret, sta)
	}
	return ret, nil
}

func (ctr *fsContainer) DropSubTree(sta SubTreeAddress) Error {
	slot, ok := ctr.index[sta]
	if !ok {
		return nil
	}
	m, err := ctr.mapSlot(slot)
	if err != nil {
		return err
	}
	encodeUint64Into(0, m[12:16])
	wipe(m[cacheSlotMetaBytes : cacheSlotMetaBytes+ctr.subTreeSize])
	delete(ctr.index, sta)
	ctr.free = append(ctr.free, slot)
	return nil
}

// Unmaps all mapped slots.
func (ctr *fsContainer) dropMappings() error {
	var result *multierror.Error
	for slot, m := range ctr.maps {
		result = multierror.Append(result, m.Flush(), m.Unmap())
		delete(ctr.maps, slot)
	}
	return result.ErrorOrNil()
}

func (ctr *fsContainer) Close() Error {
	if ctr.closed {
		return nil
	}
	ctr.closed = true

	var result *multierror.Error
	result = multierror.Append(result, ctr.dropMappings())
	if ctr.cacheFile != nil {
		result = multierror.Append(result, ctr.cacheFile.Close())
		ctr.cacheFile = nil
	}
	if ctr.keyFile != nil {
		result = multierror.Append(result, ctr.keyFile.Close())
		ctr.keyFile = nil
	}
	result = multierror.Append(result, ctr.flock.Unlock())
	wipe(ctr.keyBuf)
	ctr.cacheOk = false
	ctr.params = nil

	if err := result.ErrorOrNil(); err != nil {
		return wrapErrorf(StorageError, err, "failed to close container")
	}
	return nil
}
