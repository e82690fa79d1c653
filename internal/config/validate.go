package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return errors.New("config validation failed:\n- " + strings.Join(v.Errors, "\n- "))
}

// NormalizeAndValidate trims string fields, fills zero values with defaults
// and reports problems. Absent sheet settings and token are warnings, not errors.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation
	def := Default()

	out.Sheets.SpreadsheetID = strings.TrimSpace(out.Sheets.SpreadsheetID)
	out.Sheets.SheetName = strings.TrimSpace(out.Sheets.SheetName)
	out.Sheets.CredentialsFile = strings.TrimSpace(out.Sheets.CredentialsFile)
	out.CRM.Endpoint = strings.TrimSpace(out.CRM.Endpoint)
	out.CRM.Token = strings.TrimSpace(out.CRM.Token)

	if out.Sheets.CredentialsFile == "" {
		out.Sheets.CredentialsFile = def.Sheets.CredentialsFile
	}
	if out.CRM.Endpoint == "" {
		out.CRM.Endpoint = def.CRM.Endpoint
	}
	if out.App.DataDir == "" {
		out.App.DataDir = def.App.DataDir
	}

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	// Missing sheet settings only skip cycles; see ErrNotConfigured.
	if out.Sheets.SpreadsheetID == "" {
		res.addWarn("sheets.spreadsheet_id is empty; sync cycles will be skipped until it is set.")
	}
	if out.Sheets.SheetName == "" {
		res.addWarn("sheets.sheet_name is empty; sync cycles will be skipped until it is set.")
	} else if strings.ContainsAny(out.Sheets.SheetName, "!'") {
		res.addErr("sheets.sheet_name %q must not contain ! or '", out.Sheets.SheetName)
	}

	if u, err := url.Parse(out.CRM.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		res.addErr("crm.endpoint %q is not an absolute URL", out.CRM.Endpoint)
	}
	if out.CRM.RequestsPerSecond <= 0 {
		res.addErr("crm.requests_per_second must be > 0")
	}
	if out.CRM.Burst <= 0 {
		res.addErr("crm.burst must be > 0")
	}
	if out.Sheets.RequestsPerSecond <= 0 {
		res.addErr("sheets.requests_per_second must be > 0")
	}
	if out.Sheets.Burst <= 0 {
		res.addErr("sheets.burst must be > 0")
	}
	if out.CRM.TimeoutSeconds <= 0 {
		res.addErr("crm.timeout_seconds must be > 0")
	}

	if out.Polling.IntervalSeconds <= 0 {
		res.addErr("polling.interval_seconds must be > 0")
	} else if out.Polling.IntervalSeconds < 10 {
		res.addWarn("polling.interval_seconds is very low (%d) and may hit sheet API quotas.", out.Polling.IntervalSeconds)
	}

	if out.Ledger.Enabled && out.Ledger.RetentionDays <= 0 {
		res.addWarn("ledger.retention_days is %d; sync history will never be pruned.", out.Ledger.RetentionDays)
	}

	if out.CRM.Token == "" && strings.TrimSpace(out.CRM.KeyringAccount) == "" {
		res.addWarn("crm.token is empty and crm.keyring_account is unset; sync cycles will be skipped until HUBSPOT_TOKEN is set.")
	}

	return out, res
}
