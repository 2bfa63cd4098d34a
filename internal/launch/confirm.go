package launch

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// PromptConfirmer accepts only a literal "yes".
type PromptConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (c PromptConfirmer) Confirm(prompt string) (bool, error) {
	fmt.Fprint(c.Out, "\n"+prompt)
	line, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return strings.ToLower(strings.TrimSpace(line)) == "yes", nil
}

// AutoConfirm answers yes without asking.
type AutoConfirm struct{}

func (AutoConfirm) Confirm(string) (bool, error) { return true, nil }
