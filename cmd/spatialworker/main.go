// Command spatialworker runs one worker of a partitioned world.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spatialgw/spatialworker/engine/binutil"
	"github.com/spatialgw/spatialworker/engine/config"
	"github.com/spatialgw/spatialworker/engine/gwlog"
	"github.com/spatialgw/spatialworker/engine/post"
)

var (
	args struct {
		workerid        int
		configFile      string
		logLevel        string
		replayFile      string
		runInDaemonMode bool
	}
	service    *workerService
	signalChan = make(chan os.Signal, 1)
)

func parseArgs() {
	flag.IntVar(&args.workerid, "wid", 0, "set worker id")
	flag.StringVar(&args.configFile, "configfile", "", "set config file path")
	flag.StringVar(&args.logLevel, "log", "", "set log level, will override log level in config")
	flag.StringVar(&args.replayFile, "replay", "", "replay an op recording, will override replay_file in config")
	flag.BoolVar(&args.runInDaemonMode, "d", false, "run in daemon mode")
	flag.Parse()
}

func main() {
	rand.Seed(time.Now().UnixNano())
	parseArgs()

	if args.runInDaemonMode {
		daemoncontext := binutil.Daemonize()
		defer daemoncontext.Release()
	}

	if args.configFile != "" {
		config.SetConfigFile(args.configFile)
	}

	if args.workerid <= 0 {
		gwlog.Errorf("worker id %d is not valid, should be positive", args.workerid)
		os.Exit(1)
	}

	workerConfig := config.GetWorker(args.workerid)
	if workerConfig == nil {
		gwlog.Errorf("worker %d is not found in %s", args.workerid, config.GetConfigFilePath())
		os.Exit(1)
	}
	if workerConfig.GoMaxProcs > 0 {
		gwlog.Infof("SET GOMAXPROCS = %d", workerConfig.GoMaxProcs)
		runtime.GOMAXPROCS(workerConfig.GoMaxProcs)
	}
	logLevel := args.logLevel
	if logLevel == "" {
		logLevel = workerConfig.LogLevel
	}
	binutil.SetupGWLog(fmt.Sprintf("worker%d", args.workerid), logLevel, workerConfig.LogFile, workerConfig.LogStderr)
	binutil.SetupHTTPServer(workerConfig.HTTPIp, workerConfig.HTTPPort)
	gwlog.Infof("Read worker %d config: \n%s\n", args.workerid, config.DumpPretty(workerConfig))

	replayFile := args.replayFile
	if replayFile == "" {
		replayFile = workerConfig.ReplayFile
	}

	var err error
	service, err = newWorkerService(workerConfig, replayFile)
	if err != nil {
		gwlog.Fatalf("start worker %d failed: %+v", args.workerid, err)
	}

	setupSignals()
	service.run()
	gwlog.Infof("Worker %d terminated gracefully.", args.workerid)
	gwlog.Sync()
}

func setupSignals() {
	gwlog.Infof("Setup signals ...")
	signal.Ignore(syscall.SIGPIPE, syscall.SIGHUP)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		for {
			sig := <-signalChan
			if sig == syscall.SIGINT || sig == syscall.SIGTERM {
				gwlog.Infof("Terminating worker service ...")
				post.Post(func() {
					service.terminate()
				})
				service.terminated.Wait()
				return
			} else {
				gwlog.Errorf("unexpected signal: %s", sig)
			}
		}
	}()
}
