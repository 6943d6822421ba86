package gen

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/typebridge/typebridge/errors"
)

// formatterTimeout bounds an external formatter invocation so a hung
// formatter never wedges a generation run.
const formatterTimeout = 30 * time.Second

// runFormatter pipes content through an external command (argv form) and
// returns its stdout. Callers treat any error as a warning and keep the
// unformatted content.
func runFormatter(argv []string, content []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), formatterTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = bytes.NewReader(content)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, errors.Wrapf(err, "formatter %q: %s", argv[0], stderr.String())
		}
		return nil, errors.Wrapf(err, "formatter %q", argv[0])
	}
	if stdout.Len() == 0 {
		return nil, errors.Newf("formatter %q produced no output", argv[0])
	}
	return stdout.Bytes(), nil
}
