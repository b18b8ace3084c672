package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// Flags holds the command-line flag set shared by the client and the server.
// The set is a plain [flag.FlagSet] so it can be parsed directly by the server
// binary or attached to a cobra command with AddGoFlagSet.
//
// Flags:
//
//	-a server listen address in format [host]:[port]
//	-s / -server remote API base URL used by the client
//	-d local database DSN (SQLite file)
//	-session session file path
//	-log-file client log file path
//	-c / -config JSON or YAML config file path
//	-token-sign-key token signing key
//	-token-issuer token issuer name
//	-token-duration token duration (e.g. "24h")
//	-request-timeout server request timeout (e.g. "30s")
//	-adapter-timeout client request timeout (e.g. "15s")
//	-connect-timeout client connect timeout (e.g. "5s")
//	-hash-key request integrity hash key
//	-sync-interval background sync period
//	-probe-interval reachability probe period
//	-retry-base-delay first backoff delay of a retried sync
//	-max-sync-attempts rejected attempts before a row is abandoned
type Flags struct {
	fs *flag.FlagSet

	serverAddress   NetAddress
	adapterAddress  string
	databaseDSN     string
	sessionPath     string
	logFile         string
	configPath      string
	tokenSignKey    string
	tokenIssuer     string
	tokenDuration   time.Duration
	requestTimeout  time.Duration
	adapterTimeout  time.Duration
	connectTimeout  time.Duration
	hashKey         string
	syncInterval    time.Duration
	probeInterval   time.Duration
	retryBaseDelay  time.Duration
	maxSyncAttempts int
}

// NewFlags defines all configuration flags on a new flag set called name.
func NewFlags(name string) *Flags {
	f := &Flags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}

	f.fs.Var(&f.serverAddress, "a", "Net address host:port")
	f.fs.StringVar(&f.adapterAddress, "s", "", "Server base URL")
	f.fs.StringVar(&f.adapterAddress, "server", "", "Server base URL (alias)")
	f.fs.StringVar(&f.databaseDSN, "d", "", "Local database DSN")
	f.fs.StringVar(&f.sessionPath, "session", "", "Session file path")
	f.fs.StringVar(&f.logFile, "log-file", "", "Log file path")
	f.fs.StringVar(&f.configPath, "c", "", "Config file path (JSON or YAML)")
	f.fs.StringVar(&f.configPath, "config", "", "Config file path (alias)")
	f.fs.StringVar(&f.tokenSignKey, "token-sign-key", "", "Token signing key")
	f.fs.StringVar(&f.tokenIssuer, "token-issuer", "", "Token issuer")
	f.fs.DurationVar(&f.tokenDuration, "token-duration", 0, "Token duration (e.g., 24h)")
	f.fs.DurationVar(&f.requestTimeout, "request-timeout", 0, "Server request timeout (e.g., 30s)")
	f.fs.DurationVar(&f.adapterTimeout, "adapter-timeout", 0, "Client request timeout (e.g., 15s)")
	f.fs.DurationVar(&f.connectTimeout, "connect-timeout", 0, "Client connect timeout (e.g., 5s)")
	f.fs.StringVar(&f.hashKey, "hash-key", "", "Security hash key")
	f.fs.DurationVar(&f.syncInterval, "sync-interval", 0, "Background sync interval")
	f.fs.DurationVar(&f.probeInterval, "probe-interval", 0, "Reachability probe interval")
	f.fs.DurationVar(&f.retryBaseDelay, "retry-base-delay", 0, "First backoff delay of a retried sync")
	f.fs.IntVar(&f.maxSyncAttempts, "max-sync-attempts", 0, "Rejected attempts before a row is abandoned")

	return f
}

// FlagSet returns the underlying flag set.
func (f *Flags) FlagSet() *flag.FlagSet {
	return f.fs
}

// Parse parses args into the flag set.
func (f *Flags) Parse(args []string) error {
	return f.fs.Parse(args)
}

func (f *Flags) config() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			TokenSignKey:  f.tokenSignKey,
			TokenIssuer:   f.tokenIssuer,
			TokenDuration: f.tokenDuration,
			HashKey:       f.hashKey,
		},
		Storage: Storage{
			DB:      DB{DSN: f.databaseDSN},
			Session: Session{Path: f.sessionPath},
		},
		Server: Server{
			HTTPAddress:    f.serverAddress.String(),
			RequestTimeout: f.requestTimeout,
		},
		Adapter: Adapter{
			HTTPAddress:    f.adapterAddress,
			RequestTimeout: f.adapterTimeout,
			ConnectTimeout: f.connectTimeout,
		},
		Workers: Workers{
			SyncInterval:    f.syncInterval,
			ProbeInterval:   f.probeInterval,
			RetryBaseDelay:  f.retryBaseDelay,
			MaxSyncAttempts: f.maxSyncAttempts,
		},
		Log:            Log{File: f.logFile},
		ConfigFilePath: f.configPath,
	}
}

// String returns a canonical host:port string, or an empty string when
// neither part is set.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses a host:port string. The host must be "localhost" or a valid IP.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" && host != "" {
		if ip := net.ParseIP(host); ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
