package main

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/bwesterb/go-xmss"

	"github.com/urfave/cli"
)

func cmdAlgs(c *cli.Context) error {
	for _, name := range xmss.ListNames() {
		ctx := xmss.NewContextFromName(name)
		fmt.Printf("%08x %s\n", ctx.ParamID(), ctx.Name())
	}

	return nil
}

func cmdKeygen(c *cli.Context) error {
	ctx := xmss.NewContextFromName(c.String("alg"))
	if ctx == nil {
		return cli.NewExitError(fmt.Sprintf(
			"there is no algorithm called %s; see the algs command",
			c.String("alg")), 1)
	}
	sk, pk, err := ctx.GenerateKeyPair(c.String("key"))
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}
	defer sk.Close()

	pkBytes, err2 := pk.MarshalBinary()
	if err2 != nil {
		return cli.NewExitError(err2.Error(), 2)
	}
	pubPath := c.String("key") + ".pub"
	if err2 = ioutil.WriteFile(pubPath, pkBytes, 0644); err2 != nil {
		return cli.NewExitError(err2.Error(), 2)
	}

	fmt.Printf("Written private key to %s and public key to %s\n",
		c.String("key"), pubPath)
	return nil
}

func cmdSign(c *cli.Context) error {
	msg, err := ioutil.ReadFile(c.String("file"))
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}

	sk, lostSigs, err2 := xmss.LoadPrivateKey(c.String("key"))
	if err2 != nil {
		return cli.NewExitError(err2.Error(), 2)
	}
	defer sk.Close()
	if lostSigs != 0 {
		fmt.Fprintf(os.Stderr,
			"warning: %d signatures might have been lost\n", lostSigs)
	}

	sig, err2 := sk.Sign(msg)
	if err2 != nil {
		return cli.NewExitError(err2.Error(), 2)
	}
	sigBytes, err := sig.MarshalBinary()
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}

	out := c.String("out")
	if out == "" {
		out = c.String("file") + ".sig"
	}
	if err = ioutil.WriteFile(out, sigBytes, 0644); err != nil {
		return cli.NewExitError(err.Error(), 2)
	}

	fmt.Printf("Written signature %d to %s; %d signatures remain\n",
		sig.SeqNo(), out, sk.SignaturesRemaining())
	return nil
}

func cmdVerify(c *cli.Context) error {
	pkBytes, err := ioutil.ReadFile(c.String("pub"))
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}
	pk, err2 := xmss.PublicKeyFromBytes(pkBytes)
	if err2 != nil {
		return cli.NewExitError(err2.Error(), 2)
	}

	sigPath := c.String("sig")
	if sigPath == "" {
		sigPath = c.String("file") + ".sig"
	}
	sigBytes, err := ioutil.ReadFile(sigPath)
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}
	sig, err2 := pk.Context().SignatureFromBytes(sigBytes)
	if err2 != nil {
		return cli.NewExitError(err2.Error(), 2)
	}

	msg, err := ioutil.ReadFile(c.String("file"))
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}
	if _, err2 = pk.Verify(sig, msg); err2 != nil {
		return cli.NewExitError(err2.Error(), 3)
	}

	fmt.Println("signature is valid")
	return nil
}

func cmdInfo(c *cli.Context) error {
	sk, lostSigs, err := xmss.LoadPrivateKey(c.String("key"))
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}
	defer sk.Close()

	ctx := sk.Context()
	fmt.Printf("algorithm             %s\n", ctx.Name())
	fmt.Printf("parameter id          %08x\n", ctx.ParamID())
	fmt.Printf("next seqno            %d\n", sk.SeqNo())
	fmt.Printf("signatures remaining  %d of %d\n",
		sk.SignaturesRemaining(), sk.SignaturesTotal())
	if lostSigs != 0 {
		fmt.Printf("possibly lost         %d\n", lostSigs)
	}

	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "xmss"
	app.Usage = "Create and verify XMSS[MT] signatures"

	keyFlag := cli.StringFlag{
		Name:  "key, k",
		Value: "xmss_key",
		Usage: "path to the private key container",
	}

	app.Commands = []cli.Command{
		{
			Name:   "algs",
			Usage:  "List XMSS[MT] instances",
			Action: cmdAlgs,
		},
		{
			Name:   "keygen",
			Usage:  "Generate an XMSS[MT] keypair",
			Action: cmdKeygen,
			Flags: []cli.Flag{
				keyFlag,
				cli.StringFlag{
					Name:  "alg, a",
					Value: "XMSSMT-SHA2_20/2_256",
					Usage: "instance to use; see the algs command",
				},
			},
		},
		{
			Name:   "sign",
			Usage:  "Sign a file",
			Action: cmdSign,
			Flags: []cli.Flag{
				keyFlag,
				cli.StringFlag{
					Name:  "file, f",
					Usage: "file to sign",
				},
				cli.StringFlag{
					Name:  "out, o",
					Usage: "path to write the signature to (FILE.sig)",
				},
			},
		},
		{
			Name:   "verify",
			Usage:  "Verify a signature on a file",
			Action: cmdVerify,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "pub, p",
					Value: "xmss_key.pub",
					Usage: "path to the public key",
				},
				cli.StringFlag{
					Name:  "file, f",
					Usage: "signed file",
				},
				cli.StringFlag{
					Name:  "sig, s",
					Usage: "path of the signature (FILE.sig)",
				},
			},
		},
		{
			Name:   "info",
			Usage:  "Show the state of a private key",
			Action: cmdInfo,
			Flags:  []cli.Flag{keyFlag},
		},
	}

	app.Run(os.Args)
}
