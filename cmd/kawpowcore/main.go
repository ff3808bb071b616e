////////////////////////////////////////////////////////////////////////////
// Program: kawpowcore
// Purpose: CLI front end for the KawPoW/ProgPoW hashing core: hash a
//          header+nonce, verify a share, emit GPU kernel source, and
//          run the self-test fixture table.
////////////////////////////////////////////////////////////////////////////

package main

import (
	"encoding/hex"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/mux"
	"github.com/gorilla/rpc"
	"github.com/gorilla/rpc/json"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dynm/kawpow-core/boundary"
	"github.com/dynm/kawpow-core/ethash"
	"github.com/dynm/kawpow-core/hashtypes"
	"github.com/dynm/kawpow-core/internal/corelog"
	"github.com/dynm/kawpow-core/progpow"
)

const version = "0.1.0"

var (
	sharedCache = ethash.NewContextCache()
	loglevel    string
)

var rootCmd = &cobra.Command{
	Use:   "kawpowcore",
	Short: "KawPoW/ProgPoW core engine CLI",
	Long:  "Hash, verify, and emit kernel source for the KawPoW/ProgPoW core engine.",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

var hashCmd = &cobra.Command{
	Use:   "hash [header-hex] [nonce] [block]",
	Short: "Compute the final and mix hash for a header, nonce and block.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		header, nonce, block, err := parseHashArgs(args)
		if err != nil {
			return err
		}
		epoch := ethash.EpochFromBlock(block)
		ctx, err := sharedCache.Get(epoch, false)
		if err != nil {
			return err
		}
		period := uint32(block / progpow.Period)
		result := progpow.Hash(ctx, period, header, nonce)
		fmt.Printf("final: %x\nmix:   %x\n", result.Final.Bytes(), result.Mix.Bytes())
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify [header-hex] [nonce] [block] [mix-hex] [difficulty]",
	Short: "Verify a submitted share against a difficulty-derived boundary.",
	Args:  cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		header, nonce, block, err := parseHashArgs(args[:3])
		if err != nil {
			return err
		}
		mixBytes, err := hex.DecodeString(strings.TrimPrefix(args[3], "0x"))
		if err != nil {
			return fmt.Errorf("decoding mix hash: %w", err)
		}
		var mix hashtypes.H256
		copy(mix[:], mixBytes)

		diff, ok := new(big.Int).SetString(args[4], 10)
		if !ok {
			return fmt.Errorf("invalid difficulty %q", args[4])
		}
		bound := boundary.FromDifficulty(diff)

		if err := progpow.VerifyByBlock(sharedCache, block, header, mix, nonce, bound); err != nil {
			return err
		}
		fmt.Println("OK")
		return nil
	},
}

var kernelCmd = &cobra.Command{
	Use:   "kernel [program-seed]",
	Short: "Emit GPU kernel source for a program seed.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid program seed %q: %w", args[0], err)
		}
		opts, err := decodeKernelOptions(viper.GetStringMap("kernel-opts"))
		if err != nil {
			return fmt.Errorf("decoding kernel-opts: %w", err)
		}
		kind := progpow.KernelCUDA
		if strings.EqualFold(opts.Kind, "opencl") {
			kind = progpow.KernelOpenCL
		}
		fmt.Print(progpow.GetKernel(seed, kind))
		return nil
	},
}

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Run the fixture self-test table and report pass/fail.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := corelog.New(loglevel)
		defer logger.Sync()
		return runSelfTest(logger)
	},
}

func parseHashArgs(args []string) (hashtypes.H256, uint64, uint64, error) {
	headerBytes, err := hex.DecodeString(strings.TrimPrefix(args[0], "0x"))
	if err != nil {
		return hashtypes.H256{}, 0, 0, fmt.Errorf("decoding header hash: %w", err)
	}
	var header hashtypes.H256
	copy(header[:], headerBytes)

	nonce, err := strconv.ParseUint(args[1], 0, 64)
	if err != nil {
		return hashtypes.H256{}, 0, 0, fmt.Errorf("invalid nonce %q: %w", args[1], err)
	}
	block, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		return hashtypes.H256{}, 0, 0, fmt.Errorf("invalid block %q: %w", args[2], err)
	}
	return header, nonce, block, nil
}

func init() {
	viper.SetDefault("loglevel", "info")
	viper.SetDefault("rpc-listen", "")
	viper.SetDefault("kernel-opts", map[string]interface{}{"kind": "cuda", "groupsize": 128})

	pflag.String("cfg", "kawpowcore.json", "config file path")
	pflag.String("loglevel", "info", "log level: debug, info, warn, error")
	pflag.String("rpc-listen", "", "address to serve the debug JSON-RPC surface on, empty disables it")
	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)

	fullcfgname := viper.GetString("cfg")
	cfgname := strings.TrimSuffix(fullcfgname, filepath.Ext(fullcfgname))
	viper.SetConfigName(cfgname)
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/kawpowcore")

	if err := viper.ReadInConfig(); err != nil {
		log.Print("no config file found, using built-in defaults")
	}

	loglevel = viper.GetString("loglevel")

	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		log.Print("config file changed: ", e.Name)
		loglevel = viper.GetString("loglevel")
		corelog.SetLevel(loglevel)
	})

	rootCmd.AddCommand(versionCmd, hashCmd, verifyCmd, kernelCmd, selftestCmd)
}

// serveDebugRPC exposes Hash (not Verify) over JSON-RPC as a development aid
// for poking the core without a full stratum client; it is not a pool
// protocol implementation.
func serveDebugRPC(addr string) error {
	s := rpc.NewServer()
	s.RegisterCodec(json.NewCodec(), "application/json")
	if err := s.RegisterService(new(debugRPCService), ""); err != nil {
		return err
	}
	r := mux.NewRouter()
	r.Handle("/rpc", s)
	return http.ListenAndServe(addr, r)
}

func main() {
	if addr := viper.GetString("rpc-listen"); addr != "" {
		go func() {
			if err := serveDebugRPC(addr); err != nil {
				log.Printf("debug rpc server stopped: %v", err)
			}
		}()
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
