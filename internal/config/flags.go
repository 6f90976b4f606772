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

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a ops http address in format [host]:[port]
//	-d database DSN or sqlite file path
//	-api-base RadarGame API base URL
//	-api-timeout outbound request timeout (e.g., "15s")
//	-configs-dir artifact output directory
//	-configs-prefix artifact filename prefix
//	-dns-file path to the DNS profiles JSON file
//	-bot-token chat bot token
//	-bot-api chat Bot API root URL override
//	-flow-ttl registration flow idle expiry (e.g., "5m")
//	-c/-config json file path with configs
func ParseFlags() *Config {
	var opsAddress NetAddress
	var databaseDSN string
	var apiBase string
	var apiTimeout time.Duration
	var configsDir string
	var configsPrefix string
	var dnsFile string
	var botToken string
	var botAPI string
	var flowTTL time.Duration
	var jsonConfigPath string

	flag.Var(&opsAddress, "a", "Ops net address host:port")
	flag.StringVar(&databaseDSN, "d", "", "Database DSN or sqlite file path")
	flag.StringVar(&apiBase, "api-base", "", "RadarGame API base URL")
	flag.DurationVar(&apiTimeout, "api-timeout", 0, "Outbound request timeout (e.g., 15s)")
	flag.StringVar(&configsDir, "configs-dir", "", "Artifact output directory")
	flag.StringVar(&configsPrefix, "configs-prefix", "", "Artifact filename prefix")
	flag.StringVar(&dnsFile, "dns-file", "", "DNS profiles JSON file path")
	flag.StringVar(&botToken, "bot-token", "", "Chat bot token")
	flag.StringVar(&botAPI, "bot-api", "", "Chat Bot API root URL override")
	flag.DurationVar(&flowTTL, "flow-ttl", 0, "Registration flow idle expiry (e.g., 5m)")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")

	flag.Parse()

	return &Config{
		API: API{
			BaseURL:        apiBase,
			RequestTimeout: apiTimeout,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
			Configs: Configs{
				Dir:         configsDir,
				FilePrefix:  configsPrefix,
				DNSFilePath: dnsFile,
			},
		},
		Bot: Bot{
			Token:   botToken,
			APIURL:  botAPI,
			FlowTTL: flowTTL,
		},
		Ops: Ops{
			HTTPAddress: opsAddress.String(),
		},
		JSONFilePath: jsonConfigPath,
	}
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
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
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
