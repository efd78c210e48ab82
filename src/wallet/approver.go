package wallet

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Approver stands in for the wallet's own confirmation dialogs
type Approver interface {
	ApproveConnection(ctx context.Context, address string) (bool, error)
	ApproveSignature(ctx context.Context, address string, summary string) (bool, error)
}

// AutoApprover says yes to everything. Only meant for unattended test networks.
type AutoApprover struct{}

func (AutoApprover) ApproveConnection(ctx context.Context, address string) (bool, error) {
	return true, nil
}

func (AutoApprover) ApproveSignature(ctx context.Context, address string, summary string) (bool, error) {
	return true, nil
}

// TerminalApprover asks on out and reads a y/n answer from in
type TerminalApprover struct {
	lock   sync.Mutex
	reader *bufio.Reader
	out    io.Writer
}

func NewTerminalApprover(in io.Reader, out io.Writer) *TerminalApprover {
	return &TerminalApprover{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

func (ta *TerminalApprover) ask(ctx context.Context, question string) (bool, error) {
	ta.lock.Lock()
	defer ta.lock.Unlock()
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(ta.out, "%s [y/N]: ", question)
	line, err := ta.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func (ta *TerminalApprover) ApproveConnection(ctx context.Context, address string) (bool, error) {
	return ta.ask(ctx, fmt.Sprintf("allow this client to use account %s?", address))
}

func (ta *TerminalApprover) ApproveSignature(ctx context.Context, address string, summary string) (bool, error) {
	return ta.ask(ctx, fmt.Sprintf("sign with %s:\n  %s\n", address, summary))
}
