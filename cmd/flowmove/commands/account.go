// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/flowmove/flowmove/cmd/flowmove/cli"
	"github.com/flowmove/flowmove/lib/sealed"
	"github.com/flowmove/flowmove/lib/secret"
)

func accountCommand(runtime *Runtime) *cli.Command {
	return &cli.Command{
		Name:    "account",
		Summary: "Manage configured platform accounts",
		Subcommands: []*cli.Command{
			accountListCommand(runtime),
			accountCheckCommand(runtime),
			accountSealCommand(runtime),
		},
	}
}

type accountListParams struct {
	GlobalParams
	cli.JSONOutput
}

type accountEntry struct {
	Name       string `json:"name"`
	Username   string `json:"username"`
	Credential string `json:"credential"`
}

func accountListCommand(runtime *Runtime) *cli.Command {
	var params accountListParams
	return &cli.Command{
		Name:    "list",
		Summary: "List configured accounts and where their passwords come from",
		Usage:   "flowmove account list [--json]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			env, err := runtime.open(&params.GlobalParams, "account/list")
			if err != nil {
				return err
			}
			defer env.close()

			entries := make([]accountEntry, len(env.config.Accounts))
			for index := range env.config.Accounts {
				account := &env.config.Accounts[index]
				entries[index] = accountEntry{
					Name:       account.Name,
					Username:   account.Username,
					Credential: account.CredentialSource(),
				}
			}
			if done, err := params.EmitJSONTo(env.runtime.Out, entries); done {
				return err
			}
			if len(entries) == 0 {
				env.notef("no accounts configured\n")
				return nil
			}
			writer := tabwriter.NewWriter(env.runtime.Out, 2, 0, 3, ' ', 0)
			fmt.Fprintln(writer, "NAME\tUSERNAME\tPASSWORD")
			for _, entry := range entries {
				fmt.Fprintf(writer, "%s\t%s\t%s\n", entry.Name, entry.Username, entry.Credential)
			}
			return writer.Flush()
		},
	}
}

type accountCheckParams struct {
	GlobalParams
}

func accountCheckCommand(runtime *Runtime) *cli.Command {
	var params accountCheckParams
	return &cli.Command{
		Name:    "check",
		Summary: "Log in with an account to verify its credentials",
		Usage:   "flowmove account check <name>",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return cli.Validation("expected exactly one account name")
			}
			env, err := runtime.open(&params.GlobalParams, "account/check")
			if err != nil {
				return err
			}
			defer env.close()

			client, err := env.platformClient()
			if err != nil {
				return err
			}
			session, err := env.login(ctx, client, args[0])
			if err != nil {
				return err
			}
			env.printf("%s: logged in as %s\n", args[0], session.Username())
			return nil
		},
	}
}

type accountSealParams struct {
	GlobalParams
	Recipient        string `json:"-" flag:"recipient" desc:"age public key to seal to (default: the keys of identity_file)"`
	GenerateIdentity string `json:"-" flag:"generate-identity" desc:"write a new age identity to this path and seal to it"`
}

func accountSealCommand(runtime *Runtime) *cli.Command {
	var params accountSealParams
	return &cli.Command{
		Name:    "seal",
		Summary: "Encrypt a password for the sealed_password config field",
		Description: `Prompt for a password and print it sealed with age, ready to paste into
an account's sealed_password field.

The password is sealed to --recipient, to a freshly generated identity
(--generate-identity), or to the identities in the configured
identity_file.`,
		Usage: "flowmove account seal [--recipient <age1...> | --generate-identity <path>]",
		Examples: []cli.Example{
			{
				Description: "Create an identity and seal a password to it",
				Command:     "flowmove account seal --generate-identity ~/.flowmove/identity.txt",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			if params.Recipient != "" && params.GenerateIdentity != "" {
				return cli.Validation("--recipient and --generate-identity are mutually exclusive")
			}
			env, err := runtime.open(&params.GlobalParams, "account/seal")
			if err != nil {
				return err
			}
			defer env.close()

			recipients, err := sealRecipients(env, &params)
			if err != nil {
				return err
			}

			password, err := env.runtime.Prompter.Password("Password to seal: ")
			if err != nil {
				return cli.Validation("%w", err)
			}
			if len(password) == 0 {
				return cli.Validation("empty password")
			}
			protected, err := secret.NewFromBytes(password)
			if err != nil {
				return cli.Internal("%w", err)
			}
			defer protected.Close()
			ciphertext, err := sealed.Encrypt(protected.Bytes(), recipients)
			if err != nil {
				return cli.Internal("seal: %w", err)
			}
			env.printf("sealed_password: %s\n", ciphertext)
			return nil
		},
	}
}

func sealRecipients(env *environment, params *accountSealParams) ([]string, error) {
	switch {
	case params.Recipient != "":
		if err := sealed.ParsePublicKey(params.Recipient); err != nil {
			return nil, cli.Validation("%w", err)
		}
		return []string{params.Recipient}, nil

	case params.GenerateIdentity != "":
		keypair, err := sealed.GenerateKeypair()
		if err != nil {
			return nil, cli.Internal("%w", err)
		}
		content := fmt.Sprintf("# public key: %s\n%s\n", keypair.PublicKey, keypair.PrivateKey)
		file, err := os.OpenFile(params.GenerateIdentity, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				return nil, cli.Validation("%s already exists; refusing to overwrite an identity", params.GenerateIdentity)
			}
			return nil, cli.Internal("create identity file: %w", err)
		}
		if _, err := file.WriteString(content); err != nil {
			file.Close()
			return nil, cli.Internal("write identity file: %w", err)
		}
		if err := file.Close(); err != nil {
			return nil, cli.Internal("write identity file: %w", err)
		}
		env.notef("wrote identity to %s; set identity_file: %s\n", params.GenerateIdentity, params.GenerateIdentity)
		return []string{keypair.PublicKey}, nil

	case env.config.IdentityFile != "":
		identities, err := sealed.LoadIdentities(env.config.IdentityFile)
		if err != nil {
			return nil, classify("load identity_file", err)
		}
		recipients, err := sealed.Recipients(identities)
		if err != nil {
			return nil, cli.Validation("identity_file: %w", err)
		}
		return recipients, nil
	}
	return nil, cli.Validation("no recipient: pass --recipient or --generate-identity, or set identity_file")
}
