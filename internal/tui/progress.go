// Package tui renders file transfer progress in the terminal.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vitaminmoo/ev3-tool/internal/brick"
)

var descStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

// progressMsg reports transfer progress from the worker goroutine.
type progressMsg brick.Progress

// doneMsg signals the transfer finished, successfully or not.
type doneMsg struct {
	err error
}

// transferModel drives a single progress bar for one transfer.
type transferModel struct {
	bar         progress.Model
	description string
	done        int
	total       int
	finished    bool
	err         error
}

func (m transferModel) Init() tea.Cmd {
	return nil
}

func (m transferModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.done, m.total = msg.Done, msg.Total
		if m.total > 0 {
			return m, m.bar.SetPercent(float64(m.done) / float64(m.total))
		}
		return m, nil

	case doneMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit

	case progress.FrameMsg:
		barModel, cmd := m.bar.Update(msg)
		m.bar = barModel.(progress.Model)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.finished = true
			m.err = fmt.Errorf("interrupted")
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m transferModel) View() string {
	if m.finished {
		return ""
	}
	return descStyle.Render(fmt.Sprintf("%s (%d/%d bytes)", m.description, m.done, m.total)) +
		"\n" + m.bar.View() + "\n"
}

// RunTransfer runs op with a live progress bar. op receives a progress
// callback to pass to the brick transfer and runs on its own goroutine;
// RunTransfer returns op's error.
func RunTransfer(description string, op func(onProgress brick.ProgressFunc) error) error {
	m := transferModel{
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(40),
		),
		description: description,
	}

	p := tea.NewProgram(m)
	go func() {
		err := op(func(pr brick.Progress) {
			p.Send(progressMsg(pr))
		})
		p.Send(doneMsg{err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(transferModel); ok {
		return fm.err
	}
	return nil
}
