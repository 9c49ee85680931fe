// Package config loads the YAML configuration once at startup through
// github.com/spf13/viper, which also supplies environment-variable
// overrides and defaults, with gopkg.in/yaml.v3 as the on-disk format.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/tx2tx/tx2tx/types"
)

// Error reports a malformed or missing required config field and is
// surfaced to the user with exit code 1, following the sentinel-plus-
// wrap style of core/model.go's MissingHandlers rather than a custom
// error framework.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// PanicKey mirrors server.panic_key.
type PanicKey struct {
	Key       int   `mapstructure:"key"`
	Modifiers []int `mapstructure:"modifiers"`
}

// JumpHotkey mirrors server.jump_hotkey. North/South are carried
// alongside West/East since the engine's jump hotkey state machine is
// symmetric across all four cardinal targets and center_key already
// establishes the pattern of one key per target context.
type JumpHotkey struct {
	Enabled         bool  `mapstructure:"enabled"`
	PrefixKey       int   `mapstructure:"prefix_key"`
	PrefixModifiers []int `mapstructure:"prefix_modifiers"`
	TimeoutMs       int   `mapstructure:"timeout_ms"`
	WestKey         int   `mapstructure:"west_key"`
	EastKey         int   `mapstructure:"east_key"`
	NorthKey        int   `mapstructure:"north_key"`
	SouthKey        int   `mapstructure:"south_key"`
	CenterKey       int   `mapstructure:"center_key"`
}

// Server mirrors the server.* config block.
type Server struct {
	Host              string     `mapstructure:"host"`
	Port              int        `mapstructure:"port"`
	Display           string     `mapstructure:"display"`
	EdgeThreshold     int        `mapstructure:"edge_threshold"`
	VelocityThreshold float64    `mapstructure:"velocity_threshold"`
	PollIntervalMs    int        `mapstructure:"poll_interval_ms"`
	MaxClients        int        `mapstructure:"max_clients"`
	Name              string     `mapstructure:"name"`
	OverlayEnabled    bool       `mapstructure:"overlay_enabled"`
	StopOnDisconnect  bool       `mapstructure:"stop_on_last_disconnect"`
	PanicKey          PanicKey   `mapstructure:"panic_key"`
	JumpHotkey        JumpHotkey `mapstructure:"jump_hotkey"`
}

// ClientEntry mirrors one element of the top-level clients[] routing
// table: {name, position}.
type ClientEntry struct {
	Name     string `mapstructure:"name"`
	Position string `mapstructure:"position"`
}

// Reconnect mirrors client.reconnect.
type Reconnect struct {
	Enabled      bool `mapstructure:"enabled"`
	MaxAttempts  int  `mapstructure:"max_attempts"`
	DelaySeconds int  `mapstructure:"delay_seconds"`
}

// Client mirrors the client.* config block.
type Client struct {
	ServerAddress string    `mapstructure:"server_address"`
	Display       string    `mapstructure:"display"`
	Reconnect     Reconnect `mapstructure:"reconnect"`
}

// Protocol mirrors protocol.*.
type Protocol struct {
	Version           string `mapstructure:"version"`
	BufferSize        int    `mapstructure:"buffer_size"`
	KeepaliveInterval int    `mapstructure:"keepalive_interval"`
}

// Logging mirrors logging.*.
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// File is the full parsed configuration document.
type File struct {
	Server   Server        `mapstructure:"server"`
	Clients  []ClientEntry `mapstructure:"clients"`
	Client   Client        `mapstructure:"client"`
	Protocol Protocol      `mapstructure:"protocol"`
	Logging  Logging       `mapstructure:"logging"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 24800)
	v.SetDefault("server.edge_threshold", 1)
	v.SetDefault("server.velocity_threshold", 2000.0)
	v.SetDefault("server.poll_interval_ms", 10)
	v.SetDefault("server.max_clients", 8)
	v.SetDefault("server.overlay_enabled", true)
	v.SetDefault("server.jump_hotkey.timeout_ms", 1500)
	v.SetDefault("client.reconnect.enabled", true)
	v.SetDefault("client.reconnect.max_attempts", 0)
	v.SetDefault("client.reconnect.delay_seconds", 1)
	v.SetDefault("protocol.version", "1.0.0")
	v.SetDefault("protocol.buffer_size", 65536)
	v.SetDefault("protocol.keepalive_interval", 5)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads path through viper (env var overrides use the TX2TX_
// prefix with "_" replacing "."), applies defaults, and unmarshals
// into a File. path may be empty, in which case only defaults and
// environment overrides apply.
func Load(path string) (*File, error) {
	v := viper.New()
	v.SetEnvPrefix("TX2TX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, &Error{Field: "file", Reason: err.Error()}
		}
	}

	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, &Error{Field: "file", Reason: err.Error()}
	}
	return &f, nil
}

// ParseScreenContext parses the position strings used by clients[]
// and jump hotkey config (west/east/north/south/center).
func ParseScreenContext(s string) (types.ScreenContext, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "center":
		return types.Center, nil
	case "west":
		return types.West, nil
	case "east":
		return types.East, nil
	case "north":
		return types.North, nil
	case "south":
		return types.South, nil
	default:
		return types.Center, &Error{Field: "position", Reason: fmt.Sprintf("unknown screen context %q", s)}
	}
}

// ContextMap builds the engine's {context → client_name} routing table
// from clients[].
func (f *File) ContextMap() (map[types.ScreenContext]string, error) {
	out := make(map[types.ScreenContext]string, len(f.Clients))
	for _, c := range f.Clients {
		ctx, err := ParseScreenContext(c.Position)
		if err != nil {
			return nil, err
		}
		if c.Name == "" {
			return nil, &Error{Field: "clients[].name", Reason: "must not be empty"}
		}
		out[ctx] = c.Name
	}
	return out, nil
}

// ValidateServer checks the fields required to run in server mode.
func (f *File) ValidateServer() error {
	if f.Server.Port <= 0 || f.Server.Port > 65535 {
		return &Error{Field: "server.port", Reason: "must be between 1 and 65535"}
	}
	if f.Server.VelocityThreshold <= 0 {
		return &Error{Field: "server.velocity_threshold", Reason: "must be positive"}
	}
	if f.Server.MaxClients <= 0 {
		return &Error{Field: "server.max_clients", Reason: "must be positive"}
	}
	if len(f.Clients) == 0 {
		return &Error{Field: "clients", Reason: "at least one client must be configured"}
	}
	if _, err := f.ContextMap(); err != nil {
		return err
	}
	return nil
}

// ValidateClient checks the fields required to run in client mode.
func (f *File) ValidateClient() error {
	if f.Client.ServerAddress == "" {
		return &Error{Field: "client.server_address", Reason: "must not be empty"}
	}
	return nil
}
