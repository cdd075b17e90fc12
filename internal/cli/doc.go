// Package cli implements the sigmon command-line interface.
//
// Each Cobra command loads the config, builds a client session and then
// either hands it to a presentation layer or drives it to a single result:
//
//	sigmon watch              - interactive dashboard (tails when piped)
//	sigmon tail               - JSON lines of every published state
//	sigmon params             - edit and apply strategy parameters
//	sigmon switch <ticker>    - switch the streamed instrument
//	sigmon archive <ticker>   - replay an instrument's stored history
//	sigmon init               - create .sigmon.yaml
//	sigmon doctor             - check config and endpoint health
//	sigmon version            - print build information
//
// Global flags --config, --endpoint, --debug and --no-color apply to all of
// them. Errors are structured (see internal/errors) and printed once by
// Execute.
package cli
