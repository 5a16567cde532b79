package peripheral

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Section names recognized by the configuration store.
const (
	SectionGeneral     = "general"
	SectionOrderStatus = "order_status"
	SectionActions     = "actions"
	SectionVariables   = "variables"
	SectionGoogle      = "google"
	SectionCalendar    = "calendar"
	SectionMail        = "mail"
	SectionArchive     = "archive"
)

// Options referenced from code. Options only ever read generically (the
// order_status columns for instance) are addressed by literal name.
const (
	OptPortfolio   = "portfolio"
	OptProfilesDir = "profiles_dir"
	OptBackupDir   = "backup_dir"
	OptHeadless    = "headless"
	OptUserDataDir = "user_data_dir"
	OptProfileDir  = "profile_directory"
	OptWait        = "wait"
	OptCSVDir      = "csv_dir"

	OptCredentials = "credentials"
	OptToken       = "token"

	OptCalendarID  = "calendar_id"
	OptTimezone    = "timezone"
	OptMaintURL    = "maintenance_url"
	OptService     = "service"
	OptTimeHeader  = "time_header"
	OptPageCharset = "page_charset"

	OptMailTo = "to"

	OptDataDir       = "data_dir"
	OptSnapshotDir   = "snapshot_dir"
	OptPassphraseEnv = "passphrase_env"
)

// profileDirPattern matches the opaque profile identifiers the trading
// application creates under its profiles directory.
var profileDirPattern = regexp.MustCompile(`^[0-9a-z]{32}$`)

// Config is the sectioned key-value configuration store. A single user owns
// a single file; there is no locking because there is no concurrent access.
type Config struct {
	path     string
	sections map[string]map[string]string
}

// DefaultConfigPath returns the per-user configuration file location.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "tp", "config.yaml")
}

// LoadConfig reads the configuration file at path, seeding every missing
// option with its default. A missing file is not an error: the store starts
// from defaults and is materialized by the first Save.
func LoadConfig(path string) (*Config, error) {
	c := &Config{path: path, sections: map[string]map[string]string{}}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// first run, defaults only
	case err != nil:
		return nil, &ConfigError{Path: path, Err: err}
	default:
		if err := yaml.Unmarshal(data, &c.sections); err != nil {
			return nil, &ConfigError{Path: path, Err: err}
		}
	}

	for section, options := range defaults() {
		for option, value := range options {
			if _, ok := c.Lookup(section, option); !ok {
				c.Set(section, option, value)
			}
		}
	}

	if c.Get(SectionGeneral, OptPortfolio) == "" {
		if p, ok := DiscoverPortfolio(c.Get(SectionGeneral, OptProfilesDir)); ok {
			c.Set(SectionGeneral, OptPortfolio, p)
		}
	}
	return c, nil
}

// Path returns the file this store loads from and saves to.
func (c *Config) Path() string { return c.path }

// Lookup returns the value of section.option and whether it is present.
func (c *Config) Lookup(section, option string) (string, bool) {
	options, ok := c.sections[section]
	if !ok {
		return "", false
	}
	v, ok := options[option]
	return v, ok
}

// Get returns the value of section.option, or "" when absent.
func (c *Config) Get(section, option string) string {
	v, _ := c.Lookup(section, option)
	return v
}

// GetBool parses section.option as a boolean, defaulting to false.
func (c *Config) GetBool(section, option string) bool {
	b, _ := strconv.ParseBool(c.Get(section, option))
	return b
}

// GetInt parses section.option as an integer.
func (c *Config) GetInt(section, option string) (int, error) {
	n, err := strconv.Atoi(c.Get(section, option))
	if err != nil {
		return 0, &ConfigError{Path: section + "." + option, Err: err}
	}
	return n, nil
}

// GetDuration parses section.option as a duration ("800ms", "4s").
func (c *Config) GetDuration(section, option string) (time.Duration, error) {
	d, err := time.ParseDuration(c.Get(section, option))
	if err != nil {
		return 0, &ConfigError{Path: section + "." + option, Err: err}
	}
	return d, nil
}

// Set stores a value and reports whether the store actually changed.
func (c *Config) Set(section, option, value string) bool {
	options := c.sections[section]
	if options == nil {
		// also covers a loaded file with an empty section, which
		// unmarshals as a present key holding a nil map
		options = map[string]string{}
		c.sections[section] = options
	}
	if old, ok := options[option]; ok && old == value {
		return false
	}
	options[option] = value
	return true
}

// Sections returns the section names, sorted.
func (c *Config) Sections() []string {
	names := make([]string, 0, len(c.sections))
	for name := range c.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options returns the option names of a section, sorted.
func (c *Config) Options(section string) []string {
	names := make([]string, 0, len(c.sections[section]))
	for name := range c.sections[section] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Save writes the whole store back to disk. The write is a whole-file
// replacement through a temporary file and rename, so a failed save never
// leaves a partially written configuration behind. The YAML encoder emits
// map keys sorted, so saving an unchanged store is byte-identical.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c.sections)
	if err != nil {
		return &ConfigError{Path: c.path, Err: err}
	}
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &ConfigError{Path: c.path, Err: err}
	}
	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return &ConfigError{Path: c.path, Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &ConfigError{Path: c.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &ConfigError{Path: c.path, Err: err}
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return &ConfigError{Path: c.path, Err: err}
	}
	return nil
}

// DiscoverPortfolio locates the portfolio.json of the most recently used
// application profile under profilesDir. The application names profile
// directories with an opaque 32 character identifier; the newest one wins.
func DiscoverPortfolio(profilesDir string) (string, bool) {
	entries, err := os.ReadDir(profilesDir)
	if err != nil {
		return "", false
	}
	var newest time.Time
	var identifier string
	for _, e := range entries {
		if !e.IsDir() || !profileDirPattern.MatchString(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
			identifier = e.Name()
		}
	}
	if identifier == "" {
		return "", false
	}
	return filepath.Join(profilesDir, identifier, "portfolio.json"), true
}

// Candidates returns the enumerated values an option can take, if any. The
// interactive configuration prompt offers them as suggestions.
func Candidates(section, option string) []string {
	switch {
	case option == OptHeadless:
		return []string{"true", "false"}
	case section == SectionCalendar && option == OptPageCharset:
		return []string{"utf-8", "shift_jis"}
	case section == SectionCalendar && option == OptTimezone:
		return []string{"Asia/Tokyo", "UTC"}
	case section == SectionCalendar && option == OptCalendarID:
		return []string{"primary"}
	}
	return nil
}

func defaults() map[string]map[string]string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	configDir := filepath.Dir(DefaultConfigPath())
	profilesDir := filepath.Join(os.Getenv("APPDATA"), "SBI Securities", "HYPERSBI2")

	return map[string]map[string]string{
		SectionGeneral: {
			OptPortfolio:   "",
			OptProfilesDir: profilesDir,
			OptBackupDir:   filepath.Join(home, "Backups", "HYPERSBI2"),
			OptHeadless:    "true",
			OptUserDataDir: filepath.Join(os.Getenv("LOCALAPPDATA"), "Google", "Chrome", "User Data"),
			OptProfileDir:  "Default",
			OptWait:        "4s",
			OptCSVDir:      filepath.Join(home, "Downloads"),
		},
		SectionVariables: {
			"watchlist": "",
		},
		SectionOrderStatus: {
			"table_identifier":   "注文種別",
			"symbol_regex":       `^.* (\d{4}) 東証$`,
			"symbol_replacement": "$1",
			"margin_trading":     "信新",
			"buying_on_margin":   "信新買",
			"execution_column":   "3",
			"execution":          "約定",
			"datetime_column":    "5",
			"datetime_pattern":   `^(\d{2}/\d{2}) (\d{2}:\d{2}:\d{2})$`,
			"date_replacement":   "$1",
			"time_replacement":   "$2",
			"size_column":        "6",
			"price_column":       "7",
			"output_columns":     "entry_date,,,entry_time,symbol,size,trade_type,trade_style,entry_price,,,exit_date,exit_time,exit_price",
		},
		SectionActions: {
			"replace_sbi_securities":  defaultReplaceScript,
			"export_to_yahoo_finance": defaultExportScript,
			"get_order_status":        defaultOrderStatusScript,
		},
		SectionGoogle: {
			OptCredentials: filepath.Join(configDir, "credentials.json"),
			OptToken:       filepath.Join(configDir, "token.json"),
		},
		SectionCalendar: {
			OptCalendarID:  "primary",
			OptTimezone:    "Asia/Tokyo",
			OptMaintURL:    "https://search.sbisec.co.jp/v2/popwin/info/home/pop6040_maintenance.html",
			OptService:     "HYPER SBI 2",
			OptTimeHeader:  "メンテナンス予定時間",
			OptPageCharset: "shift_jis",
		},
		SectionMail: {
			OptMailTo: "",
		},
		SectionArchive: {
			OptDataDir:       profilesDir,
			OptSnapshotDir:   filepath.Join(home, "Backups", "snapshots"),
			OptPassphraseEnv: "TP_PASSPHRASE",
		},
	}
}

// The default browser scripts mirror the site flows the tool automates.
// They live in the configuration so the operator can adjust selectors when
// the sites change, without a new build.
const defaultReplaceScript = `- op: navigate
  arg: https://www.sbisec.co.jp/ETGate
- op: sleep
  value: 800ms
- op: click
  arg: //input[@name="ACT_login"]
- op: click
  arg: //a[text()="ポートフォリオ"]
- op: click
  arg: //a[text()="登録銘柄リストの追加・置き換え"]
- op: click
  arg: //img[@alt="登録銘柄リストの追加・置き換え機能を利用する"]
- op: click
  arg: //*[@name="tool_from" and @value="3"]
- op: click
  arg: //input[@value="次へ"]
- op: click
  arg: //*[@name="tool_to_1" and @value="1"]
- op: click
  arg: //input[@value="次へ"]
- op: click
  arg: //*[@name="add_replace_tool_01" and @value="1_2"]
- op: click
  arg: //input[@value="確認画面へ"]
- op: click
  arg: //input[@value="指示実行"]
`

const defaultExportScript = `- op: navigate
  arg: https://finance.yahoo.com/portfolios
- op: exist
  arg: //*[@id="Col1-0-Portfolios-Proxy"]//a[text()="${variables:watchlist}"]
  then:
    - op: click
      arg: //*[@id="Col1-0-Portfolios-Proxy"]//a[text()="${variables:watchlist}"]
    - op: click
      arg: //span[text()="Settings"]
    - op: sleep
      value: 800ms
    - op: click
      arg: //span[text()="Delete Portfolio"]
    - op: click
      arg: //span[text()="Confirm"]
- op: click
  arg: //span[text()="Import"]
- op: fill
  arg: //input[@name="ext_pf"]
  value: ${general:csv_dir}/${variables:watchlist}.csv
- op: click
  arg: //span[text()="Submit"]
- op: refresh
- op: sleep
  value: 800ms
- op: click
  arg: //a[text()="Imported from Yahoo"]
- op: click
  arg: //span[text()="Settings"]
- op: click
  arg: //span[text()="Rename Portfolio"]
- op: clear
  arg: //input[@value="Imported from Yahoo"]
- op: fill
  arg: //input[@value="Imported from Yahoo"]
  value: ${variables:watchlist}
- op: click
  arg: //span[text()="Save"]
- op: sleep
  value: 800ms
`

const defaultOrderStatusScript = `- op: navigate
  arg: https://www.sbisec.co.jp/ETGate
- op: sleep
  value: 800ms
- op: click
  arg: //input[@name="ACT_login"]
- op: click
  arg: //a[text()="注文照会"]
`
