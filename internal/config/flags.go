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
//	-a server address in format [host]:[port]
//	-b backend adapter address in format [host]:[port]
//	-d database DSN
//	-local-dsn local sqlite DSN
//	-c/-config json file path with configs
//	-master-secret keyring master secret
//	-token-sign-key handoff token signing key
//	-token-issuer handoff token issuer name
//	-handoff-timeout handoff offer timeout (e.g., "30s")
//	-request-timeout request timeout (e.g., "30s", "1m")
//	-hash-key checksum hash key
//	-queue-capacity scheduler queue capacity
//	-workers general worker count
//	-crisis-workers reserved crisis worker count
func ParseFlags() *StructuredConfig {
	var serverAddress, adapterAddress NetAddress
	var databaseDSN string
	var localDSN string
	var jsonConfigPath string
	var masterSecret string
	var tokenSignKey string
	var tokenIssuer string
	var handoffTimeout time.Duration
	var requestTimeout time.Duration
	var hashKey string
	var queueCapacity int
	var workers int
	var crisisWorkers int

	flag.Var(&serverAddress, "a", "Net address host:port")
	flag.Var(&adapterAddress, "b", "Backend adapter address host:port")
	flag.StringVar(&databaseDSN, "d", "", "Database DSN")
	flag.StringVar(&localDSN, "local-dsn", "", "Local sqlite DSN")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.StringVar(&masterSecret, "master-secret", "", "Keyring master secret")
	flag.StringVar(&tokenSignKey, "token-sign-key", "", "Handoff token signing key")
	flag.StringVar(&tokenIssuer, "token-issuer", "", "Handoff token issuer")
	flag.DurationVar(&handoffTimeout, "handoff-timeout", 0, "Handoff offer timeout (e.g., 30s)")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	flag.StringVar(&hashKey, "hash-key", "", "Checksum hash key")
	flag.IntVar(&queueCapacity, "queue-capacity", 0, "Scheduler queue capacity")
	flag.IntVar(&workers, "workers", 0, "General worker count")
	flag.IntVar(&crisisWorkers, "crisis-workers", 0, "Reserved crisis worker count")

	flag.Parse()

	return &StructuredConfig{
		App: App{
			MasterSecret:   masterSecret,
			TokenSignKey:   tokenSignKey,
			TokenIssuer:    tokenIssuer,
			HandoffTimeout: handoffTimeout,
			HashKey:        hashKey,
		},
		Scheduler: Scheduler{
			QueueCapacity: queueCapacity,
			Workers:       workers,
			CrisisWorkers: crisisWorkers,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
			Local: Local{
				DSN: localDSN,
			},
		},
		Server: Server{
			HTTPAddress:    serverAddress.String(),
			RequestTimeout: requestTimeout,
		},
		Adapter: Adapter{
			HTTPAddress:    adapterAddress.String(),
			RequestTimeout: requestTimeout,
		},
		Workers:      Workers{},
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

	if host != "localhost" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
