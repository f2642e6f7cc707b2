package hostdb

import (
	"context"
	"database/sql"
	"errors"

	foundationerrors "git.home.luguber.info/inful/productbuilder/internal/foundation/errors"
)

// Product is a row of the product table.
type Product struct {
	ID              string
	Title           string
	Description     string
	Version         string
	URL             string
	VersionCheckURL string
	Active          bool
}

// Dependency is a row of the productdependency table.
type Dependency struct {
	Type       string
	MinVersion string
	MaxVersion string
}

// Code is a row of the productcode table.
type Code struct {
	Version   string
	Install   string
	Uninstall string
}

// Plugin is a row of the plugin table.
type Plugin struct {
	Title          string
	HookName       string
	Code           string
	Active         bool
	ExecutionOrder int
}

// Template is a row of the template table.
type Template struct {
	Title    string
	Type     string
	Body     string
	Version  string
	Username string
}

// PhraseType is a row of the phrasetype table.
type PhraseType struct {
	FieldName string
	Title     string
	Product   string
}

// Phrase is a master-language row of the phrase table.
type Phrase struct {
	VarName   string
	FieldName string
	Text      string
}

// SettingGroup is a row of the settinggroup table.
type SettingGroup struct {
	Title        string
	DisplayOrder string
	Product      string
}

// Setting is a row of the setting table. Nullable columns are nil when NULL.
type Setting struct {
	VarName        string
	GroupTitle     string
	DefaultValue   *string
	OptionCode     *string
	DisplayOrder   string
	Advanced       *string
	DataType       *string
	ValidationCode *string
	Blacklist      *string
}

// Cron is a row of the cron table.
type Cron struct {
	VarName  string
	Weekday  string
	Day      string
	Hour     string
	Minute   string
	Filename string
	LogLevel int
	Active   int
}

// Navigation is a row of the navigation table.
type Navigation struct {
	Name         string
	Type         string
	DisplayOrder string
	Parent       string
	URL          string
	ShowPerm     string
	Scripts      string
}

// Navigation row types.
const (
	NavTypeTab  = "tab"
	NavTypeLink = "link"
)

// ProductData is everything the host stores for one product.
type ProductData struct {
	Product       Product
	Dependencies  []Dependency
	Codes         []Code
	Plugins       []Plugin
	Templates     []Template
	PhraseTypes   []PhraseType
	Phrases       []Phrase
	SettingGroups []SettingGroup
	Settings      []Setting
	Crons         []Cron
	Navigation    []Navigation
}

// LoadProduct reads every record owned by the product id. A missing product
// is a lookup error. Only active plugins are returned, by execution order.
// PhraseTypes holds every group the product's phrases and settings refer to.
func (h *DB) LoadProduct(ctx context.Context, id string) (*ProductData, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	d := &ProductData{}
	row := h.db.QueryRowContext(ctx,
		"SELECT productid, title, description, version, url, versioncheckurl, active FROM product WHERE productid = ?", id)
	var active int
	err := row.Scan(&d.Product.ID, &d.Product.Title, &d.Product.Description, &d.Product.Version,
		&d.Product.URL, &d.Product.VersionCheckURL, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, foundationerrors.LookupError("product not found").
			WithContext("product", id).
			Build()
	}
	if err != nil {
		return nil, dbErr("query product", err)
	}
	d.Product.Active = active != 0

	steps := []struct {
		name  string
		query string
		scan  func(*sql.Rows) error
	}{
		{"dependencies", "SELECT dependencytype, minversion, maxversion FROM productdependency WHERE productid = ? ORDER BY productdependencyid",
			func(r *sql.Rows) error {
				var v Dependency
				err := r.Scan(&v.Type, &v.MinVersion, &v.MaxVersion)
				d.Dependencies = append(d.Dependencies, v)
				return err
			}},
		{"codes", "SELECT version, installcode, uninstallcode FROM productcode WHERE productid = ? ORDER BY productcodeid",
			func(r *sql.Rows) error {
				var v Code
				err := r.Scan(&v.Version, &v.Install, &v.Uninstall)
				d.Codes = append(d.Codes, v)
				return err
			}},
		{"plugins", "SELECT title, hookname, phpcode, active, executionorder FROM plugin WHERE product = ? AND active = 1 ORDER BY executionorder, pluginid",
			func(r *sql.Rows) error {
				var v Plugin
				var on int
				err := r.Scan(&v.Title, &v.HookName, &v.Code, &on, &v.ExecutionOrder)
				v.Active = on != 0
				d.Plugins = append(d.Plugins, v)
				return err
			}},
		{"templates", "SELECT title, templatetype, template_un, version, username FROM template WHERE product = ? AND templatetype IN ('template', 'css') ORDER BY title",
			func(r *sql.Rows) error {
				var v Template
				err := r.Scan(&v.Title, &v.Type, &v.Body, &v.Version, &v.Username)
				d.Templates = append(d.Templates, v)
				return err
			}},
		{"phrases", "SELECT varname, fieldname, text FROM phrase WHERE product = ? AND languageid = -1 ORDER BY fieldname, varname",
			func(r *sql.Rows) error {
				var v Phrase
				err := r.Scan(&v.VarName, &v.FieldName, &v.Text)
				d.Phrases = append(d.Phrases, v)
				return err
			}},
		{"setting groups", "SELECT grouptitle, displayorder, product FROM settinggroup WHERE product = ? OR grouptitle IN (SELECT grouptitle FROM setting WHERE product = ?) ORDER BY grouptitle",
			func(r *sql.Rows) error {
				var v SettingGroup
				err := r.Scan(&v.Title, &v.DisplayOrder, &v.Product)
				d.SettingGroups = append(d.SettingGroups, v)
				return err
			}},
		{"settings", "SELECT varname, grouptitle, defaultvalue, optioncode, displayorder, advanced, datatype, validationcode, blacklist FROM setting WHERE product = ? ORDER BY grouptitle, varname",
			func(r *sql.Rows) error {
				var v Setting
				var def, code, adv, typ, valid, black sql.NullString
				err := r.Scan(&v.VarName, &v.GroupTitle, &def, &code, &v.DisplayOrder, &adv, &typ, &valid, &black)
				v.DefaultValue, v.OptionCode, v.Advanced = nullable(def), nullable(code), nullable(adv)
				v.DataType, v.ValidationCode, v.Blacklist = nullable(typ), nullable(valid), nullable(black)
				d.Settings = append(d.Settings, v)
				return err
			}},
		{"tasks", "SELECT varname, weekday, day, hour, minute, filename, loglevel, active FROM cron WHERE product = ? ORDER BY varname",
			func(r *sql.Rows) error {
				var v Cron
				err := r.Scan(&v.VarName, &v.Weekday, &v.Day, &v.Hour, &v.Minute, &v.Filename, &v.LogLevel, &v.Active)
				d.Crons = append(d.Crons, v)
				return err
			}},
		{"navigation", "SELECT name, navtype, displayorder, parent, url, showperm, scripts FROM navigation WHERE productid = ? ORDER BY navtype DESC, name",
			func(r *sql.Rows) error {
				var v Navigation
				err := r.Scan(&v.Name, &v.Type, &v.DisplayOrder, &v.Parent, &v.URL, &v.ShowPerm, &v.Scripts)
				d.Navigation = append(d.Navigation, v)
				return err
			}},
		{"phrase types", "SELECT fieldname, title, product FROM phrasetype WHERE product = ? OR fieldname IN (SELECT fieldname FROM phrase WHERE product = ?) ORDER BY fieldname",
			func(r *sql.Rows) error {
				var v PhraseType
				err := r.Scan(&v.FieldName, &v.Title, &v.Product)
				d.PhraseTypes = append(d.PhraseTypes, v)
				return err
			}},
	}

	for _, step := range steps {
		if err := h.each(ctx, step.query, args(step.query, id), step.scan); err != nil {
			return nil, foundationerrors.DatabaseError("load product "+step.name).
				WithContext("product", id).
				WithCause(err).
				Build()
		}
	}
	return d, nil
}

func (h *DB) each(ctx context.Context, query string, params []any, scan func(*sql.Rows) error) error {
	rows, err := h.db.QueryContext(ctx, query, params...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// args repeats id once per placeholder in query.
func args(query, id string) []any {
	var out []any
	for _, c := range query {
		if c == '?' {
			out = append(out, id)
		}
	}
	return out
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// Install writes d into the database, replacing any existing records of the
// same product.
func (h *DB) Install(ctx context.Context, d *ProductData) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return dbErr("begin install", err)
	}
	defer func() { _ = tx.Rollback() }()

	id := d.Product.ID
	purge := []string{
		"DELETE FROM product WHERE productid = ?",
		"DELETE FROM productdependency WHERE productid = ?",
		"DELETE FROM productcode WHERE productid = ?",
		"DELETE FROM plugin WHERE product = ?",
		"DELETE FROM template WHERE product = ?",
		"DELETE FROM phrasetype WHERE product = ?",
		"DELETE FROM phrase WHERE product = ?",
		"DELETE FROM settinggroup WHERE product = ?",
		"DELETE FROM setting WHERE product = ?",
		"DELETE FROM cron WHERE product = ?",
		"DELETE FROM navigation WHERE productid = ?",
	}
	for _, q := range purge {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return dbErr("purge product", err)
		}
	}

	exec := func(q string, a ...any) {
		if err != nil {
			return
		}
		_, err = tx.ExecContext(ctx, q, a...)
	}

	p := d.Product
	exec("INSERT INTO product (productid, title, description, version, url, versioncheckurl, active) VALUES (?, ?, ?, ?, ?, ?, ?)",
		p.ID, p.Title, p.Description, p.Version, p.URL, p.VersionCheckURL, boolInt(p.Active))
	for _, v := range d.Dependencies {
		exec("INSERT INTO productdependency (productid, dependencytype, minversion, maxversion) VALUES (?, ?, ?, ?)",
			id, v.Type, v.MinVersion, v.MaxVersion)
	}
	for _, v := range d.Codes {
		exec("INSERT INTO productcode (productid, version, installcode, uninstallcode) VALUES (?, ?, ?, ?)",
			id, v.Version, v.Install, v.Uninstall)
	}
	for _, v := range d.Plugins {
		exec("INSERT INTO plugin (title, hookname, phpcode, product, active, executionorder) VALUES (?, ?, ?, ?, ?, ?)",
			v.Title, v.HookName, v.Code, id, boolInt(v.Active), v.ExecutionOrder)
	}
	for _, v := range d.Templates {
		exec("INSERT INTO template (title, templatetype, template_un, product, version, username) VALUES (?, ?, ?, ?, ?, ?)",
			v.Title, v.Type, v.Body, id, v.Version, v.Username)
	}
	for _, v := range d.PhraseTypes {
		exec("INSERT OR REPLACE INTO phrasetype (fieldname, title, product) VALUES (?, ?, ?)",
			v.FieldName, v.Title, v.Product)
	}
	for _, v := range d.Phrases {
		exec("INSERT INTO phrase (languageid, varname, fieldname, text, product) VALUES (-1, ?, ?, ?, ?)",
			v.VarName, v.FieldName, v.Text, id)
	}
	for _, v := range d.SettingGroups {
		exec("INSERT OR REPLACE INTO settinggroup (grouptitle, displayorder, product) VALUES (?, ?, ?)",
			v.Title, v.DisplayOrder, v.Product)
	}
	for _, v := range d.Settings {
		exec("INSERT OR REPLACE INTO setting (varname, grouptitle, defaultvalue, optioncode, displayorder, advanced, datatype, validationcode, blacklist, product) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			v.VarName, v.GroupTitle, v.DefaultValue, v.OptionCode, v.DisplayOrder, v.Advanced, v.DataType, v.ValidationCode, v.Blacklist, id)
	}
	for _, v := range d.Crons {
		exec("INSERT INTO cron (varname, weekday, day, hour, minute, filename, loglevel, active, product) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			v.VarName, v.Weekday, v.Day, v.Hour, v.Minute, v.Filename, v.LogLevel, v.Active, id)
	}
	for _, v := range d.Navigation {
		exec("INSERT INTO navigation (name, productid, navtype, displayorder, parent, url, showperm, scripts) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			v.Name, id, v.Type, v.DisplayOrder, v.Parent, v.URL, v.ShowPerm, v.Scripts)
	}
	if err != nil {
		return foundationerrors.DatabaseError("install product").
			WithContext("product", id).
			WithCause(err).
			Build()
	}
	if err := tx.Commit(); err != nil {
		return dbErr("commit install", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
