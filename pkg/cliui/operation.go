package cliui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/papercomputeco/gauntlet/pkg/conversation"
	"github.com/papercomputeco/gauntlet/pkg/operation"
	"github.com/papercomputeco/gauntlet/pkg/utils"
)

var (
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)

	statusColors = map[operation.Status]string{
		operation.StatusDraft:     "245",
		operation.StatusActive:    "39",
		operation.StatusPaused:    "214",
		operation.StatusCompleted: "82",
		operation.StatusFailed:    "196",
	}

	roleColors = map[operation.Role]string{
		operation.RoleOperator:   "39",
		operation.RoleTarget:     "213",
		operation.RoleStrategist: "214",
	}
)

// Status renders an operation status, with its result when terminal.
func Status(op *operation.Operation) string {
	text := string(op.Status)
	if op.Result != nil {
		text += " (" + string(*op.Result) + ")"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(statusColors[op.Status])).Render(text)
}

// OperationTable renders operations as a table, newest first as given.
func OperationTable(ops []*operation.Operation) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("ID", "NAME", "STATUS", "TARGET", "UPDATED").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for _, op := range ops {
		t.Row(op.ID, utils.Truncate(op.Name, 32), Status(op), op.TargetLLM, op.UpdatedAt.Local().Format(time.DateTime))
	}
	return t.String()
}

// PrintOperation writes the detail view of one operation.
func PrintOperation(w io.Writer, op *operation.Operation) {
	field := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-15s", label)), value)
	}

	fmt.Fprintln(w, headerStyle.Render(op.Name))
	field("id", op.ID)
	field("status", Status(op))
	field("target", op.TargetLLM)
	field("persona", op.TargetPersona)
	field("attack vector", op.AttackVector)
	field("goal", op.MaliciousGoal)
	if op.StartTime != nil {
		field("started", op.StartTime.Local().Format(time.DateTime))
	}
	if op.EndTime != nil {
		field("ended", op.EndTime.Local().Format(time.DateTime))
	}
	if op.Notes != nil {
		field("notes", *op.Notes)
	}
}

// PrintConversation writes a session view, dimming provisional entries.
func PrintConversation(w io.Writer, entries []conversation.Entry) {
	for _, e := range entries {
		PrintMessage(w, e.Message, e.State == conversation.Provisional)
	}
}

// PrintMessage writes one message under a role header. Target replies are
// rendered as markdown.
func PrintMessage(w io.Writer, m *operation.Message, pending bool) {
	role := string(m.Role)
	if m.MessageType != "" {
		role += " · " + m.MessageType
	}
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(roleColors[m.Role])).Render(role)
	if pending {
		header += " " + pendingStyle.Render("(pending)")
	} else if !m.CommittedAt.IsZero() {
		header += " " + labelStyle.Render(m.CommittedAt.Local().Format(time.TimeOnly))
	}
	fmt.Fprintln(w, header)

	body := m.Content
	if m.Role == operation.RoleTarget {
		if rendered, err := RenderMarkdown(body); err == nil {
			body = strings.TrimRight(rendered, "\n")
		}
	}
	fmt.Fprintln(w, body)
	fmt.Fprintln(w)
}

// PayloadTable renders corpus payloads.
func PayloadTable(payloads []*operation.Payload) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("ID", "VECTOR", "TARGET", "RATE", "PROMPT").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for _, p := range payloads {
		prompt := strings.Join(strings.Fields(p.Prompt), " ")
		t.Row(p.ID, p.AttackVector, p.TargetLLM, fmt.Sprintf("%.2f", p.SuccessRate), utils.Truncate(prompt, 60))
	}
	return t.String()
}
