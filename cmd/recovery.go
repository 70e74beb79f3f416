package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mattsolo1/lmbench/pkg/benchmark"
	"github.com/mattsolo1/lmbench/pkg/config"
)

// DefaultMaxPrompts bounds how often one invocation may ask for input.
const DefaultMaxPrompts = 5

// ErrRetryLimit is reported when an invocation keeps asking for configuration.
var ErrRetryLimit = errors.New("too many configuration prompts")

// OutcomeKind is what the recovery loop does next after an attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomePrompt
	OutcomeCategorized
	OutcomeConfigError
	OutcomeUnknown
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomePrompt:
		return "prompt"
	case OutcomeCategorized:
		return "categorized"
	case OutcomeConfigError:
		return "config-error"
	default:
		return "unknown"
	}
}

// Outcome is the classification of one attempt.
type Outcome struct {
	Kind     OutcomeKind
	Key      string
	Category Category
	Err      error
}

var promptMessages = map[string]string{
	config.KeyCacheDir: `lmbench needs a cache directory. Datasets are downloaded into it and
method results are kept there so that repeated runs are fast. It can
grow to several gigabytes, so choose a disk with space to spare.
The path must be absolute. It is saved as cache_dir in your lmbench
configuration and you will not be asked again.
`,
	config.KeyMatlabBinPath: `This experiment contains a method that runs in Matlab, but lmbench
does not know where Matlab is installed. Enter the full path to the
matlab executable, for example /usr/local/MATLAB/R2024b/bin/matlab.
It is saved as matlab_bin_path in your lmbench configuration.
`,
}

var promptLabels = map[string]string{
	config.KeyCacheDir:      "Path to the cache directory: ",
	config.KeyMatlabBinPath: "Path to the matlab binary: ",
}

// Classify decides what follows an attempt that returned err.
func Classify(err error) Outcome {
	if err == nil {
		return Outcome{Kind: OutcomeSuccess}
	}

	var missing *benchmark.MissingConfigError
	if errors.As(err, &missing) {
		if _, ok := promptMessages[missing.Key]; ok {
			return Outcome{Kind: OutcomePrompt, Key: missing.Key, Err: err}
		}
		return Outcome{Kind: OutcomeConfigError, Key: missing.Key, Category: CategoryConfig, Err: err}
	}

	var (
		schemaErr     *benchmark.SchemaError
		validationErr *config.ValidationError
		metadataErr   *benchmark.MissingMetadataError
		notFoundErr   *benchmark.ModuleNotFoundError
		cdnErr        *benchmark.MissingCDNCredentialsError
		outDirErr     *benchmark.OutputDirExistsError
	)
	categorized := func(c Category) Outcome {
		return Outcome{Kind: OutcomeCategorized, Category: c, Err: err}
	}
	switch {
	case errors.As(err, &schemaErr), errors.As(err, &validationErr):
		return categorized(CategorySchema)
	case errors.As(err, &metadataErr):
		return categorized(CategoryMissingMetadata)
	case errors.As(err, &notFoundErr):
		return categorized(CategoryModuleNotFound)
	case errors.As(err, &cdnErr):
		return categorized(CategoryMissingCDNCredentials)
	case errors.As(err, &outDirErr):
		return categorized(CategoryOutputDirExists)
	}
	return Outcome{Kind: OutcomeUnknown, Category: CategoryUnexpected, Err: err}
}

// Invoker runs one benchmark request.
type Invoker interface {
	Invoke(ctx context.Context, req benchmark.Request) error
}

// ConfigSetter persists a configuration value, rejecting invalid ones.
type ConfigSetter interface {
	Set(key, value string) error
}

// Recoverer runs a request, asking the user for missing configuration and
// retrying the same request until it succeeds or fails for another reason.
type Recoverer struct {
	Service    Invoker
	Store      ConfigSetter
	Prompter   Prompter
	Out        io.Writer
	MaxPrompts int

	banners *bannerWriter
}

// Run invokes req. Any failure is reported on Out and returned as an
// *ExitError with code 1.
func (r *Recoverer) Run(ctx context.Context, req benchmark.Request) error {
	limit := r.MaxPrompts
	if limit <= 0 {
		limit = DefaultMaxPrompts
	}

	prompts := 0
	for {
		outcome := Classify(r.Service.Invoke(ctx, req))
		switch outcome.Kind {
		case OutcomeSuccess:
			return nil
		case OutcomePrompt:
			if prompts == limit {
				return r.fail(Outcome{
					Kind:     OutcomeUnknown,
					Category: CategoryUnexpected,
					Err:      fmt.Errorf("%w: still missing %s after %d prompts: %w", ErrRetryLimit, outcome.Key, prompts, outcome.Err),
				})
			}
			prompts++
			if err := r.ask(ctx, outcome.Key); err != nil {
				return r.fail(Classify(err))
			}
		default:
			return r.fail(outcome)
		}
	}
}

func (r *Recoverer) ask(ctx context.Context, key string) error {
	fmt.Fprintf(r.Out, "\n%s %s\n", color.YellowString("⚠"), promptMessages[key])
	value, err := r.Prompter.Prompt(ctx, promptLabels[key])
	if err != nil {
		return err
	}
	if err := r.Store.Set(key, value); err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "%s Saved %s = %s\n", color.GreenString("✓"), key, value)
	return nil
}

func (r *Recoverer) fail(o Outcome) error {
	b := r.banners
	if b == nil {
		b = newBannerWriter(r.Out)
	}
	switch o.Kind {
	case OutcomeCategorized, OutcomeConfigError:
		b.Print(o.Category, o.Err.Error())
	default:
		b.Print(CategoryUnexpected, errorChain(o.Err)...)
	}
	return &ExitError{Code: 1}
}
