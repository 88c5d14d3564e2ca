package session

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/jihwankim/scriptgend/internal/evaluator"
	"github.com/jihwankim/scriptgend/internal/observability"
)

// StdinController reads newline-delimited tokens from standard input:
// `shutdown` triggers the signal watch, `reload` injects a canned
// system-info document through the same mutation path a system_info request
// would use (spec.md §5 "Standard-input controller").
type StdinController struct {
	dispatcher     *evaluator.Dispatcher
	signal         *SignalWatch
	systemInfoPath string
	logger         *observability.Logger
}

// NewStdinController constructs a StdinController reading the canned
// reload document from systemInfoPath.
func NewStdinController(dispatcher *evaluator.Dispatcher, signal *SignalWatch, systemInfoPath string, logger *observability.Logger) *StdinController {
	return &StdinController{dispatcher: dispatcher, signal: signal, systemInfoPath: systemInfoPath, logger: logger}
}

// Run reads tokens from r (os.Stdin in production) until EOF or the
// shutdown token.
func (c *StdinController) Run(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		token := strings.TrimSpace(scanner.Text())
		switch token {
		case "shutdown":
			c.signal.Stop()
			return
		case "reload":
			c.reload()
		case "":
			continue
		default:
			if c.logger != nil {
				c.logger.Warn("unrecognized stdin token", "token", token)
			}
		}
	}
}

func (c *StdinController) reload() {
	body, err := os.ReadFile(c.systemInfoPath)
	if err != nil {
		if c.logger != nil {
			c.logger.Error("reload: failed to read canned system-info document", "error", err.Error(), "path", c.systemInfoPath)
		}
		return
	}

	resp := c.dispatcher.Dispatch(evaluator.Envelope{RequestType: evaluator.TypeSystemInfo, JSONValue: string(body)})
	if resp.RequestType == evaluator.TypeError && c.logger != nil {
		c.logger.Error("reload: system-info injection failed", "error", resp.AdditionalInfo)
	}
}
