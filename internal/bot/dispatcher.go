// Package bot turns chat messages into ledger calls and sends the replies back.
package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"spesebot/internal/core"
	"spesebot/internal/log"
	"spesebot/internal/trace"
)

const (
	replyUnknown       = "Unknown command"
	replyNoExpenses    = "No expenses found."
	replySomethingWent = "Something went wrong."
)

const helpText = `Here are the available commands:

/add <amount> <description> [date] - Adds a new expense.
Example: /add 50 Dinner 2024-09-15
Example: /add 50 Dinner
If no date is given, today's date is used.

/remove <id> - Removes an expense by ID.
Example: /remove 3

/last <number> - Lists the most recent expenses.
Example: /last 5

/budget - Checks if you are within your monthly budget.
Example: /budget

/update_budget <amount> - Updates the budget.
Example: /update_budget 1500

/dbudget - Checks if you are within your daily budget.
Example: /dbudget

/wbudget - Checks if you are within your weekly budget.
Example: /wbudget

/date <date> - Lists transactions for date.
Example: /date 2024-09-18

/top <number> - List largest expenses.
Example: /top 10
/export - Export as csv.
Example: /export`

// Message is the transport-neutral part of an incoming chat message.
type Message struct {
	ChatID int64
	Text   string
}

// Sender delivers replies to a chat.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, path string) error
}

// Ledger is what the dispatcher needs from the ledger service.
type Ledger interface {
	AddExpense(ctx context.Context, amount core.Money, description string, date core.Date) (core.Expense, error)
	RemoveExpense(ctx context.Context, id int64) (bool, error)
	ListRecentExpenses(ctx context.Context, limit int) ([]core.Expense, error)
	LargestTransactions(ctx context.Context, limit int) ([]core.Expense, error)
	ExpensesForDate(ctx context.Context, date core.Date) ([]core.Expense, error)
	UpdateBudget(ctx context.Context, amount core.Money) error
	CheckBudget(ctx context.Context) (core.BudgetReport, error)
	CheckDailyBudget(ctx context.Context) (core.BudgetReport, error)
	CheckWeeklyBudget(ctx context.Context) (core.BudgetReport, error)
	ExportExpensesCSV(ctx context.Context, path string) (int, error)
}

// handlerFunc returns the text reply. An empty reply sends nothing.
type handlerFunc func(ctx context.Context, msg Message, args []string) (string, error)

type route struct {
	command string
	pattern *regexp.Regexp
	handle  handlerFunc
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Dispatcher routes commands from the allowed chat to the ledger.
type Dispatcher struct {
	ledger        Ledger
	sender        Sender
	allowedChatID int64
	exportPath    string
	logger        *log.Logger
	routes        []route
}

func NewDispatcher(ledger Ledger, sender Sender, allowedChatID int64, exportPath string, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Discard()
	}
	if exportPath == "" {
		exportPath = "expenses.csv"
	}
	d := &Dispatcher{
		ledger:        ledger,
		sender:        sender,
		allowedChatID: allowedChatID,
		exportPath:    exportPath,
		logger:        logger.WithComponent(log.ComponentBot),
	}
	d.routes = []route{
		{"help", regexp.MustCompile(`^/help$`), d.help},
		{"add", regexp.MustCompile(`^/add\s+(.+)$`), d.addExpense},
		{"remove", regexp.MustCompile(`^/remove\s+(\d+)$`), d.removeExpense},
		{"last", regexp.MustCompile(`^/last\s+(\d+)$`), d.listRecent},
		{"top", regexp.MustCompile(`^/top\s+(\d+)$`), d.largest},
		{"budget", regexp.MustCompile(`^/budget$`), d.checkBudget},
		{"update_budget", regexp.MustCompile(`^/update_budget\s+(\d+(?:[.,]\d+)?)$`), d.updateBudget},
		{"dbudget", regexp.MustCompile(`^/dbudget$`), d.checkDailyBudget},
		{"wbudget", regexp.MustCompile(`^/wbudget$`), d.checkWeeklyBudget},
		{"date", regexp.MustCompile(`^/date\s+(\d{4}-\d{2}-\d{2})$`), d.expensesForDate},
		{"export", regexp.MustCompile(`^/export$`), d.export},
	}
	return d
}

// Handle processes one message. It never panics and never returns an error:
// failures are logged and answered so the receive loop keeps going.
func (d *Dispatcher) Handle(ctx context.Context, msg Message) {
	start := time.Now()
	ctx, _ = trace.Start(ctx)
	logger := d.logger.With(log.FieldChatID, msg.ChatID)

	if msg.ChatID != d.allowedChatID {
		logger.WarnContext(ctx, "Ignoring message from unknown chat")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Panic while handling message",
				log.FieldError, fmt.Sprint(r),
				log.FieldStack, string(debug.Stack()))
			d.reply(ctx, msg.ChatID, replySomethingWent)
		}
	}()

	text := normalize(msg.Text)
	logger.InfoContext(ctx, "Received message", "text", text)

	for _, r := range d.routes {
		m := r.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		reply, err := r.handle(ctx, msg, m[1:])
		if err != nil {
			logger.ErrorContext(ctx, "Command failed",
				log.FieldCommand, r.command,
				log.FieldError, err)
			reply = errorReply(err)
		}
		if reply != "" {
			d.reply(ctx, msg.ChatID, reply)
		}
		logger.InfoContext(ctx, "Handled command",
			log.FieldCommand, r.command,
			"duration_ms", time.Since(start).Milliseconds())
		return
	}

	d.reply(ctx, msg.ChatID, replyUnknown)
}

func (d *Dispatcher) reply(ctx context.Context, chatID int64, text string) {
	if err := d.sender.SendText(ctx, chatID, text); err != nil {
		d.logger.ErrorContext(ctx, "Failed to send reply",
			log.FieldChatID, chatID,
			log.FieldError, err)
	}
}

// normalize trims the text and drops the @botname suffix Telegram appends
// to commands in group chats.
func normalize(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return text
	}
	cmd, rest, found := strings.Cut(text, " ")
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	if !found {
		return cmd
	}
	return cmd + " " + rest
}

func errorReply(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidLimit),
		errors.Is(err, core.ErrInvalidID):
		return "Invalid input: " + err.Error()
	default:
		return replySomethingWent
	}
}

func (d *Dispatcher) help(context.Context, Message, []string) (string, error) {
	return helpText, nil
}

// addExpense parses "<amount> <description...> [YYYY-MM-DD]". The trailing
// date is only taken when there are more than two tokens, so "/add 5 2024-01-01"
// records an expense described as "2024-01-01".
func (d *Dispatcher) addExpense(ctx context.Context, _ Message, args []string) (string, error) {
	tokens := strings.Fields(args[0])

	amount, err := core.ParseAmount(tokens[0])
	if err != nil {
		return "", err
	}

	var date core.Date
	if len(tokens) > 2 && datePattern.MatchString(tokens[len(tokens)-1]) {
		date, err = core.ParseDate(tokens[len(tokens)-1])
		if err != nil {
			return "", err
		}
		tokens = tokens[:len(tokens)-1]
	}
	description := strings.Join(tokens[1:], " ")

	e, err := d.ledger.AddExpense(ctx, amount, description, date)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Expense added: Amount=%s, Description=%s, Date=%s", e.Amount, e.Description, e.Date), nil
}

func (d *Dispatcher) removeExpense(ctx context.Context, _ Message, args []string) (string, error) {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidID, args[0])
	}
	removed, err := d.ledger.RemoveExpense(ctx, id)
	if err != nil {
		return "", err
	}
	if !removed {
		return fmt.Sprintf("No expense with ID %d.", id), nil
	}
	return fmt.Sprintf("Expense with ID %d removed.", id), nil
}

func (d *Dispatcher) listRecent(ctx context.Context, _ Message, args []string) (string, error) {
	limit, err := parseLimit(args[0])
	if err != nil {
		return "", err
	}
	expenses, err := d.ledger.ListRecentExpenses(ctx, limit)
	if err != nil {
		return "", err
	}
	return formatExpenses(expenses, replyNoExpenses), nil
}

func (d *Dispatcher) largest(ctx context.Context, _ Message, args []string) (string, error) {
	limit, err := parseLimit(args[0])
	if err != nil {
		return "", err
	}
	expenses, err := d.ledger.LargestTransactions(ctx, limit)
	if err != nil {
		return "", err
	}
	return formatExpenses(expenses, replyNoExpenses), nil
}

func (d *Dispatcher) checkBudget(ctx context.Context, _ Message, _ []string) (string, error) {
	return reportText(d.ledger.CheckBudget(ctx))
}

func (d *Dispatcher) checkDailyBudget(ctx context.Context, _ Message, _ []string) (string, error) {
	return reportText(d.ledger.CheckDailyBudget(ctx))
}

func (d *Dispatcher) checkWeeklyBudget(ctx context.Context, _ Message, _ []string) (string, error) {
	return reportText(d.ledger.CheckWeeklyBudget(ctx))
}

func (d *Dispatcher) updateBudget(ctx context.Context, _ Message, args []string) (string, error) {
	amount, err := core.ParseAmount(args[0])
	if err != nil {
		return "", err
	}
	if err := d.ledger.UpdateBudget(ctx, amount); err != nil {
		return "", err
	}
	return fmt.Sprintf("Budget updated to %s.", amount), nil
}

func (d *Dispatcher) expensesForDate(ctx context.Context, _ Message, args []string) (string, error) {
	date, err := core.ParseDate(args[0])
	if err != nil {
		return "", err
	}
	expenses, err := d.ledger.ExpensesForDate(ctx, date)
	if err != nil {
		return "", err
	}
	return formatExpenses(expenses, fmt.Sprintf("No transactions found for %s.", date)), nil
}

func (d *Dispatcher) export(ctx context.Context, msg Message, _ []string) (string, error) {
	n, err := d.ledger.ExportExpensesCSV(ctx, d.exportPath)
	if err != nil {
		return "", err
	}
	if err := d.sender.SendDocument(ctx, msg.ChatID, d.exportPath); err != nil {
		return "", fmt.Errorf("send export: %w", err)
	}
	d.logger.InfoContext(ctx, "Sent export", log.FieldPath, d.exportPath, "rows", n)
	return "", nil
}

func parseLimit(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidLimit, s)
	}
	return n, nil
}

func reportText(r core.BudgetReport, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return r.String(), nil
}

// formatExpenses renders one line per expense, or empty when there are none.
func formatExpenses(expenses []core.Expense, empty string) string {
	if len(expenses) == 0 {
		return empty
	}
	lines := make([]string, len(expenses))
	for i, e := range expenses {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n")
}
