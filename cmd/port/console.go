package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"port/consents"
	"port/logs"
	"port/protocols"
)

// Console is a line-oriented visualisation for running sessions in a
// terminal. One page at a time, one answer per page.
type Console struct {
	rl     *readline.Instance
	locale string
	logger logs.Logger
}

func NewConsole(locale string, logger logs.Logger) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: "> ",
	})
	if err != nil {
		return nil, err
	}
	return &Console{
		rl:     rl,
		locale: locale,
		logger: logger,
	}, nil
}

func (c *Console) Close() {
	_ = c.rl.Close()
}

func (c *Console) Render(page protocols.Page, resolve func(protocols.Payload)) {
	switch page := page.(type) {

	case protocols.PageSplash:
		fmt.Println("welcome, press enter to begin")
		c.readLine("")
		resolve(protocols.PayloadVoid{})

	case protocols.PageEnd:
		fmt.Println("all done, thank you")
		resolve(protocols.PayloadVoid{})

	case protocols.PageDonation:
		fmt.Printf("== %s (%.0f%%) ==\n",
			page.Header.Title.Lookup(c.locale),
			page.Footer.Progress,
		)
		c.renderBody(page.Body, resolve)

	default:
		c.logger.Error("page not renderable", "kind", page.PageKind())
		resolve(protocols.PayloadFalse{})
	}
}

func (c *Console) renderBody(body protocols.Body, resolve func(protocols.Payload)) {
	switch body := body.(type) {

	case protocols.PromptFileInput:
		fmt.Println(body.Description.Lookup(c.locale))
		fmt.Printf("expected: %s\n", body.Extensions)
		for {
			line := c.readLine("file path (empty to skip): ")
			if line == "" {
				resolve(protocols.PayloadFalse{})
				return
			}
			data, err := os.ReadFile(line)
			if err != nil {
				fmt.Printf("cannot read %s: %v\n", line, err)
				continue
			}
			resolve(protocols.PayloadFile{
				Name: filepath.Base(line),
				Data: data,
			})
			return
		}

	case protocols.PromptConfirm:
		fmt.Println(body.Text.Lookup(c.locale))
		if c.yes(fmt.Sprintf("%s / %s [y/n]: ",
			body.Ok.Lookup(c.locale),
			body.Cancel.Lookup(c.locale),
		)) {
			resolve(protocols.PayloadTrue{})
		} else {
			resolve(protocols.PayloadFalse{})
		}

	case protocols.PromptConsentForm:
		form, err := consents.NewForm(body, c.locale)
		ce(err)
		fmt.Println(body.Description.Lookup(c.locale))
		for _, table := range form.Tables() {
			c.editTable(form, table)
		}
		for _, table := range form.MetaTables() {
			printTable(table)
		}
		fmt.Println(body.DonateQuestion.Lookup(c.locale))
		if c.yes(fmt.Sprintf("%s / %s [y/n]: ",
			body.DonateButton.Lookup(c.locale),
			body.CancelButton.Lookup(c.locale),
		)) {
			payload, err := form.Payload()
			ce(err)
			resolve(payload)
		} else {
			resolve(protocols.PayloadFalse{})
		}

	default:
		c.logger.Error("prompt not renderable", "kind", body.BodyKind())
		resolve(protocols.PayloadFalse{})
	}
}

func (c *Console) editTable(form *consents.Form, table *consents.Table) {
	printTable(table)
	if len(table.Rows) == 0 {
		return
	}
	for {
		line := c.readLine("rows to drop (numbers, empty keeps all): ")
		if line == "" {
			return
		}
		drop := make(map[int]bool)
		bad := false
		for _, field := range strings.Fields(line) {
			i, err := strconv.Atoi(field)
			if err != nil || i < 0 || i >= len(table.Rows) {
				fmt.Printf("no such row: %s\n", field)
				bad = true
				break
			}
			drop[i] = true
		}
		if bad {
			continue
		}
		var kept [][]string
		for i, row := range table.Rows {
			if !drop[i] {
				kept = append(kept, row)
			}
		}
		ce(form.Edit(table.ID, kept))
		printTable(table)
		return
	}
}

func printTable(table *consents.Table) {
	fmt.Printf("-- %s --\n", table.Title)
	fmt.Printf("     %s\n", strings.Join(table.Head, " | "))
	for i, row := range table.Rows {
		fmt.Printf("%3d: %s\n", i, strings.Join(row, " | "))
	}
}

func (c *Console) readLine(prompt string) string {
	c.rl.SetPrompt(prompt)
	line, err := c.rl.Readline()
	if err != nil { // Ctrl-C or Ctrl-D
		return ""
	}
	return strings.TrimSpace(line)
}

func (c *Console) yes(prompt string) bool {
	for {
		switch c.readLine(prompt) {
		case "y", "yes":
			return true
		case "n", "no", "":
			return false
		}
	}
}
