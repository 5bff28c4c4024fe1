package main

import (
	"bufio"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/udisondev/rsalab/internal/attack"
	"github.com/udisondev/rsalab/internal/crypto"
	"github.com/udisondev/rsalab/internal/freq"
	"github.com/udisondev/rsalab/internal/lab"
)

var errPublicKeyFlags = errors.New("--e and --n must be given together")

// dumpConfig prints block reports without pointer addresses so output is
// stable between runs.
var dumpConfig = spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}

// newRootCommand builds the command tree around a. The caller closes a once
// the command has run.
func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "rsalab",
		Short:         "Toy RSA with small primes and a frequency-based decoder",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context(), cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default $RSALAB_CONFIG or "+ConfigPath+")")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newKeysCommand(a),
		newEncryptCommand(a),
		newDecryptCommand(a),
		newAttackCommand(a),
		newFreqCommand(),
		newDemoCommand(a),
		newHistoryCommand(a),
	)
	return root
}

func newKeysCommand(a *app) *cobra.Command {
	var size string
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Generate key material and print every component",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := a.keys(cmd.Context(), size)
			if err != nil {
				return err
			}
			printKey(cmd, key)
			return nil
		},
	}
	cmd.Flags().StringVarP(&size, "size", "s", "", "prime size: small or medium")
	return cmd
}

func newEncryptCommand(a *app) *cobra.Command {
	var size string
	cmd := &cobra.Command{
		Use:   "encrypt TEXT",
		Short: "Encrypt text one character per block",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.keys(cmd.Context(), size)
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			ct, err := a.svc.EncryptMessage(cmd.Context(), text, key)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ct)
			fmt.Fprintln(cmd.ErrOrStderr(), freq.Format(lab.FrequencyOf(text)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&size, "size", "s", "", "prime size: small or medium")
	return cmd
}

func newDecryptCommand(a *app) *cobra.Command {
	var size string
	cmd := &cobra.Command{
		Use:   "decrypt CIPHERTEXT",
		Short: "Decrypt hex ciphertext with the private exponent",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := a.keys(cmd.Context(), size)
			if err != nil {
				return err
			}
			text, err := a.svc.DecryptWithPrivate(cmd.Context(), strings.Join(args, " "), key)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			fmt.Fprintln(cmd.ErrOrStderr(), freq.Format(lab.FrequencyOf(text)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&size, "size", "s", "", "prime size: small or medium")
	return cmd
}

func newAttackCommand(a *app) *cobra.Command {
	var (
		size, e, n, file string
		dump             bool
	)
	cmd := &cobra.Command{
		Use:   "attack [CIPHERTEXT]",
		Short: "Recover plaintext from ciphertext using only the public key",
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := a.attackKey(size, e, n)
			if err != nil {
				return err
			}

			var messages []string
			if file != "" {
				if messages, err = readLines(file); err != nil {
					return err
				}
				if len(messages) == 0 {
					return fmt.Errorf("%s: %w", file, lab.ErrEmptyCiphertext)
				}
			} else {
				messages = []string{strings.Join(args, " ")}
			}

			var results []attack.Result
			if len(messages) == 1 {
				res, err := a.svc.StatisticalDecode(cmd.Context(), messages[0], pub)
				if err != nil {
					return err
				}
				results = []attack.Result{res}
			} else {
				if results, err = a.svc.StatisticalDecodeBatch(cmd.Context(), messages, pub); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			for _, res := range results {
				fmt.Fprintln(out, res.Text)
				if dump {
					dumpConfig.Fdump(out, res.Blocks)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "blocks=%d ambiguous=%d unresolved=%d\n",
					len(res.Blocks), res.Ambiguous(), res.Unresolved())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&size, "size", "s", "", "use the public key of this prime size")
	cmd.Flags().StringVar(&e, "e", "", "public exponent (decimal)")
	cmd.Flags().StringVar(&n, "n", "", "modulus (decimal)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "decode one ciphertext per line")
	cmd.Flags().BoolVar(&dump, "dump", false, "print the per-block candidate report")
	return cmd
}

// attackKey returns the explicit (e, n) pair if given, otherwise the public
// half of the curated key for size.
func (a *app) attackKey(size, e, n string) (crypto.PublicKey, error) {
	if e == "" && n == "" {
		s, err := a.primeSize(size)
		if err != nil {
			return crypto.PublicKey{}, err
		}
		key, err := crypto.GenerateKeysWithExponents(s, a.cfg.Exponents)
		if err != nil {
			return crypto.PublicKey{}, err
		}
		return key.Public(), nil
	}
	if e == "" || n == "" {
		return crypto.PublicKey{}, errPublicKeyFlags
	}
	eInt, ok := new(big.Int).SetString(e, 10)
	if !ok {
		return crypto.PublicKey{}, fmt.Errorf("parsing --e %q", e)
	}
	nInt, ok := new(big.Int).SetString(n, 10)
	if !ok {
		return crypto.PublicKey{}, fmt.Errorf("parsing --n %q", n)
	}
	return crypto.PublicKey{E: eInt, N: nInt}, nil
}

func newFreqCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "freq TEXT",
		Short: "Count letters in text, most frequent first",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), freq.Format(lab.FrequencyOf(strings.Join(args, " "))))
			return nil
		},
	}
}

func newDemoCommand(a *app) *cobra.Command {
	var size string
	cmd := &cobra.Command{
		Use:   "demo TEXT",
		Short: "Run keys, encrypt, decrypt and attack on one message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			text := strings.Join(args, " ")

			key, err := a.keys(ctx, size)
			if err != nil {
				return err
			}
			printKey(cmd, key)

			ct, err := a.svc.EncryptMessage(ctx, text, key)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nciphertext: %s\n", ct)

			plain, err := a.svc.DecryptWithPrivate(ctx, ct, key)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "decrypted:  %s\n", plain)

			res, err := a.svc.StatisticalDecode(ctx, ct, key.Public())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "recovered:  %s\n", res.Text)

			fmt.Fprintf(out, "\nplaintext letters:\n%s\n", freq.Format(lab.FrequencyOf(text)))
			fmt.Fprintf(out, "\nrecovered letters:\n%s\n", freq.Format(lab.FrequencyOf(res.Text)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&size, "size", "s", "", "prime size: small or medium")
	return cmd
}

func newHistoryCommand(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs stored in PostgreSQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.history == nil {
				return errDatabaseDisabled
			}
			runs, err := a.history.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			sizes := make(map[string]string)
			for _, r := range runs {
				size, ok := sizes[r.KeyFingerprint]
				if !ok {
					row, err := a.history.GetKey(cmd.Context(), r.KeyFingerprint)
					if err != nil {
						return err
					}
					size = "-"
					if row != nil && row.PrimeSize != "" {
						size = string(row.PrimeSize)
					}
					sizes[r.KeyFingerprint] = size
				}
				fmt.Fprintf(out, "%s  %-18s  %s  %-6s  %s\n",
					r.CreatedAt.Format("2006-01-02 15:04:05"), r.Operation, r.KeyFingerprint, size, r.Output)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "number of runs to show")
	return cmd
}

func printKey(cmd *cobra.Command, key *crypto.KeyMaterial) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "p   = %s\n", key.P())
	fmt.Fprintf(out, "q   = %s\n", key.Q())
	fmt.Fprintf(out, "n   = %s\n", key.N())
	fmt.Fprintf(out, "phi = %s\n", key.Phi())
	fmt.Fprintf(out, "e   = %s\n", key.E())
	fmt.Fprintf(out, "d   = %s\n", key.D())
	fmt.Fprintf(out, "fingerprint = %s\n", key.Public().Fingerprint())
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return lines, nil
}
