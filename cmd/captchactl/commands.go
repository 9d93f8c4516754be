package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"peerprep/captcha/internal/captcha"
	"peerprep/captcha/internal/config"
	"peerprep/captcha/internal/render"
	"peerprep/captcha/internal/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errRejected = errors.New("answer rejected")

type generateOptions struct {
	kind         string
	size         int
	difficulty   string
	seed         int64
	profilesPath string
	asJSON       bool
}

type renderOptions struct {
	out    string
	height int
	seed   int64
}

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "captchactl",
		Short:         "Generate, solve and render captcha challenges locally",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				utils.InitDevelopmentLogger()
			} else {
				utils.Logger = zap.NewNop()
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")

	rootCmd.AddCommand(newGenerateCmd(), newSolveCmd(), newVerifyCmd(), newRenderCmd())
	return rootCmd
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print a new challenge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.kind, "kind", string(captcha.KindExpression), "expression or string")
	cmd.Flags().IntVar(&opts.size, "size", 3, "operand count (expression) or length (string)")
	cmd.Flags().StringVar(&opts.difficulty, "difficulty", "normal", "easy, normal or hard")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "seed for a reproducible challenge, 0 picks one")
	cmd.Flags().StringVar(&opts.profilesPath, "profiles", "", "YAML file overriding difficulty profiles")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the challenge and its answer as JSON")
	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	kind, err := captcha.ParseKind(opts.kind)
	if err != nil {
		return err
	}
	difficulty, err := captcha.ParseDifficulty(opts.difficulty)
	if err != nil {
		return err
	}

	var profiles captcha.Profiles
	if opts.profilesPath != "" {
		if profiles, err = config.LoadProfiles(opts.profilesPath); err != nil {
			return err
		}
	}

	seed := opts.seed
	if seed == 0 {
		if seed, err = captcha.NewSeed(); err != nil {
			return err
		}
	}

	challenge, err := captcha.New(captcha.Request{
		Kind:       kind,
		Size:       opts.size,
		Difficulty: difficulty,
		Seed:       seed,
		Profiles:   profiles,
	})
	if err != nil {
		return err
	}
	answer, err := captcha.Answer(challenge.Kind, challenge.Text)
	if err != nil {
		return err
	}
	utils.GetLogger().Debug("Challenge generated", zap.Int64("seed", seed), zap.String("kind", string(kind)))

	out := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			captcha.Challenge
			Answer string `json:"answer"`
		}{challenge, answer})
	}
	fmt.Fprintln(out, challenge.Text)
	return nil
}

func newSolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "solve <challenge>",
		Short: "Evaluate an arithmetic challenge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			answer, err := captcha.Solve(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}
}

func newVerifyCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "verify <challenge> <answer>",
		Short: "Check an answer; exits non-zero when it is wrong",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := captcha.ParseKind(kind)
			if err != nil {
				return err
			}
			if !captcha.Check(k, args[0], args[1]) {
				return errRejected
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(captcha.KindExpression), "expression or string")
	return cmd
}

func newRenderCmd() *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render <text>",
		Short: "Write the distorted PNG of a challenge text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.out, "out", "o", "-", "output file, - for stdout")
	cmd.Flags().IntVar(&opts.height, "height", render.DefaultHeight, "image height in pixels")
	cmd.Flags().Int64Var(&opts.seed, "seed", 1, "distortion seed")
	return cmd
}

func runRender(cmd *cobra.Command, text string, opts *renderOptions) error {
	text = strings.TrimSpace(text)
	renderOpts := render.Options{Height: opts.height}

	if opts.out == "-" {
		return render.EncodePNG(cmd.OutOrStdout(), text, renderOpts, opts.seed)
	}

	f, err := os.Create(opts.out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", opts.out, err)
	}
	if err := render.EncodePNG(f, text, renderOpts, opts.seed); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	utils.GetLogger().Debug("Image written", zap.String("path", opts.out))
	return nil
}
