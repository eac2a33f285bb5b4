package main

import (
	"errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

var errAborted = errors.New("prompt aborted")

// prompter asks the user for the value of one template variable
type prompter interface {
	Input(name string) (string, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Input(name string) (string, error) {
	var out string
	prompt := &survey.Input{
		Message: name + ":",
		Help:    "Value rendered for {{" + name + "}}",
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return "", errAborted
		}
		return "", err
	}
	return out, nil
}
