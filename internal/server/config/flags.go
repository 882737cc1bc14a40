package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/tripflow/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC health bind address (e.g., ":50051")
//	-p string   flow webhook path
//	-b string   storage backend: postgres | memory
//	-d string   PostgreSQL DSN
//	-k string   private key file
//	-s string   app secret for request signatures
//	-t string   flow token signing secret
//	-l string   log level
//	-r float    rate limit, requests per second
//
// The remaining secrets come from the JSON file or the environment.
//
// os.Args is filtered with flagx.FilterArgs first so -c/-e and flags of
// other components do not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-p", "-b", "-d", "-k", "-s", "-t", "-l", "-r"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run http server")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to run grpc health server")
	fs.StringVar(&config.FlowPath, "p", config.FlowPath, "flow webhook path")
	fs.StringVar(&config.StorageBackend, "b", config.StorageBackend, "storage backend (postgres|memory)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.PrivateKeyFile, "k", config.PrivateKeyFile, "private key file")
	fs.StringVar(&config.AppSecret, "s", config.AppSecret, "app secret")
	fs.StringVar(&config.FlowTokenSecret, "t", config.FlowTokenSecret, "flow token secret")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.Float64Var(&config.RateLimitRPS, "r", config.RateLimitRPS, "rate limit (requests per second, 0 disables)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
