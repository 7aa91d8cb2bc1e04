package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/streamv8/streamv8/internal/config"
	"github.com/streamv8/streamv8/internal/store"
)

type Action string

const (
	ActionLogin            Action = "LOGIN"
	ActionLogout           Action = "LOGOUT"
	ActionCreateUser       Action = "CREATE_USER"
	ActionUpdateUser       Action = "UPDATE_USER"
	ActionResetPassword    Action = "RESET_PASSWORD"
	ActionDisableUser      Action = "DISABLE_USER"
	ActionCreateMovie      Action = "CREATE_MOVIE"
	ActionUpdateMovie      Action = "UPDATE_MOVIE"
	ActionDeleteMovie      Action = "DELETE_MOVIE"
	ActionCreateSeries     Action = "CREATE_SERIES"
	ActionUpdateSeries     Action = "UPDATE_SERIES"
	ActionDeleteSeries     Action = "DELETE_SERIES"
	ActionPublishContent   Action = "PUBLISH_CONTENT"
	ActionUnpublishContent Action = "UNPUBLISH_CONTENT"
	ActionFeatureContent   Action = "FEATURE_CONTENT"
	ActionUnfeatureContent Action = "UNFEATURE_CONTENT"
	ActionCreateCategory   Action = "CREATE_CATEGORY"
	ActionUpdateCategory   Action = "UPDATE_CATEGORY"
	ActionDeleteCategory   Action = "DELETE_CATEGORY"
)

// Logger records privileged actions as an append-only, ordered trail. Each
// call is a durable side effect before it returns; entries are never
// rewritten or deleted.
type Logger struct {
	store *store.Store
	cfg   *config.Config
}

func NewLogger(st *store.Store, cfg *config.Config) *Logger {
	return &Logger{store: st, cfg: cfg}
}

// Record appends one pipe-delimited line:
// <RFC3339 timestamp> | <actor> | <action> | <target> | <details JSON>
func (a *Logger) Record(actor string, action Action, target string, details map[string]interface{}) error {
	if details == nil {
		details = map[string]interface{}{}
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return err
	}
	line := fmt.Sprintf("%s | %s | %s | %s | %s",
		time.Now().UTC().Format(time.RFC3339), actor, action, target, payload)
	return a.store.AppendLine(a.cfg.AuditLogPath(), line)
}

// Tail returns up to n most recent entries, oldest first. A missing log
// reads as empty.
func (a *Logger) Tail(n int) ([]string, error) {
	data, err := os.ReadFile(a.cfg.AuditLogPath())
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return []string{}, nil
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
