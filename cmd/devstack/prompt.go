package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// promptConfirm asks a yes/no question on stdin. An empty answer takes the
// default; only an explicit "n" refuses a default-yes question and only an
// explicit "y" accepts a default-no one.
func promptConfirm(prompt string, defaultYes bool) (bool, error) {
	return confirmFrom(os.Stdin, os.Stdout, prompt, defaultYes)
}

func confirmFrom(in io.Reader, out io.Writer, prompt string, defaultYes bool) (bool, error) {
	_, _ = fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" && !errors.Is(err, io.EOF) {
		return false, err
	}
	resp := strings.ToLower(strings.TrimSpace(line))
	if defaultYes {
		return resp != "n" && resp != "no", nil
	}
	return resp == "y" || resp == "yes", nil
}
