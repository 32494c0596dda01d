package services

import (
	"context"
	"strconv"
	"strings"
)

// CommandAction is what an admin command asks for.
type CommandAction string

const (
	ActionApproveSubmission CommandAction = "approve_submission"
	ActionRejectSubmission  CommandAction = "reject_submission"
	ActionApproveRecharge   CommandAction = "approve_recharge"
	ActionApproveWithdrawal CommandAction = "approve_withdrawal"
)

// Longest prefix first: "/approve_" would otherwise swallow the other two.
var commandPrefixes = []struct {
	prefix string
	action CommandAction
}{
	{"/approve_recharge_", ActionApproveRecharge},
	{"/approve_withdraw_", ActionApproveWithdrawal},
	{"/approve_", ActionApproveSubmission},
	{"/reject_", ActionRejectSubmission},
}

// Command is a parsed identifier-bearing admin command such as "/approve_12".
type Command struct {
	Action CommandAction `json:"action"`
	ID     uint          `json:"id"`
}

// ParseCommand accepts the command text as typed in chat. A trailing "@botname" and
// any arguments after the first space are ignored.
func ParseCommand(text string) (Command, error) {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, " \t\n"); i >= 0 {
		text = text[:i]
	}
	if i := strings.IndexByte(text, '@'); i >= 0 {
		text = text[:i]
	}
	for _, p := range commandPrefixes {
		if !strings.HasPrefix(text, p.prefix) {
			continue
		}
		id, err := strconv.ParseUint(strings.TrimPrefix(text, p.prefix), 10, 32)
		if err != nil || id == 0 {
			return Command{}, invalidInput("command", "expected a numeric id after "+p.prefix)
		}
		return Command{Action: p.action, ID: uint(id)}, nil
	}
	return Command{}, invalidInput("command", "unknown command "+strconv.Quote(text))
}

// CommandResult carries the record the command acted on.
type CommandResult struct {
	Command
	Record interface{} `json:"record"`
}

// Dispatch parses an admin command and routes it to the matching workflow.
func (s *ReviewService) Dispatch(ctx context.Context, callerID int64, text string) (*CommandResult, error) {
	if err := s.authorize(callerID, "dispatch"); err != nil {
		return nil, err
	}
	cmd, err := ParseCommand(text)
	if err != nil {
		return nil, err
	}

	var record interface{}
	switch cmd.Action {
	case ActionApproveSubmission, ActionRejectSubmission:
		record, err = s.Submissions.reviewSubmission(ctx, callerID, cmd.ID, cmd.Action == ActionApproveSubmission)
	case ActionApproveRecharge:
		record, err = s.Recharges.verifyRecharge(ctx, callerID, cmd.ID)
	case ActionApproveWithdrawal:
		record, err = s.Withdrawals.verifyWithdrawal(ctx, callerID, cmd.ID)
	}
	if err != nil {
		return nil, err
	}
	return &CommandResult{Command: cmd, Record: record}, nil
}
