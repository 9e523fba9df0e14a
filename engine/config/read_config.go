package config

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-ini/ini"
	"github.com/pkg/errors"
	"github.com/spatialgw/spatialworker/engine/common"
	"github.com/spatialgw/spatialworker/engine/consts"
	"github.com/spatialgw/spatialworker/engine/gwlog"
)

const (
	_DEFAULT_CONFIG_FILE   = "spatialworker.ini"
	_DEFAULT_HTTP_IP       = "127.0.0.1"
	_DEFAULT_LOG_LEVEL     = "debug"
	_DEFAULT_IDPOOL_KEY    = "spatialworker:entityid"
	_DEFAULT_IDPOOL_DB     = "spatialworker"
	_DEFAULT_IDPOOL_COLL   = "entityids"
	_DEFAULT_WORKER_TYPE   = "worker"
	_WORKER_SECTION_PREFIX = "worker"
)

var (
	configFilePath = _DEFAULT_CONFIG_FILE
	workerConfig   *SpatialWorkerConfig
	configLock     sync.Mutex
)

// WorkerConfig defines fields of worker config
type WorkerConfig struct {
	WorkerType   string
	LogFile      string
	LogStderr    bool
	LogLevel     string
	HTTPIp       string
	HTTPPort     int
	GoMaxProcs   int
	PathPrefix   string // instance prefix of stably named object paths
	SpawnPerTick int
	RulesFile    string // TOML spawn rule table
	ReplayFile   string // msgpack op recording replayed as the connection
}

// IDPoolConfig defines fields of the entity id reservation backend
type IDPoolConfig struct {
	Type         string // memory, redis, redis_cluster, mongodb
	Url          string // redis host or mongodb url
	DB           string // redis db index or mongodb database
	Collection   string // mongodb
	Key          string // counter key (redis) or document id (mongodb)
	StartNodes   common.StringSet
	BlockSize    int
	LowWatermark int
}

// InterestConfig defines the defaults of generated interest queries
type InterestConfig struct {
	Frequency    float64
	FullSnapshot bool
}

// SpatialWorkerConfig defines the total config file structure
type SpatialWorkerConfig struct {
	WorkerCommon WorkerConfig
	Workers      map[int]*WorkerConfig
	IDPool       IDPoolConfig
	Interest     InterestConfig
}

// SetConfigFile sets the config file path (spatialworker.ini by default)
func SetConfigFile(f string) {
	configFilePath = f
}

// GetConfigDir returns the directory of the config file
func GetConfigDir() string {
	dir, _ := path.Split(configFilePath)
	return dir
}

// GetConfigFilePath returns the config file path
func GetConfigFilePath() string {
	return configFilePath
}

// Get returns the total config
func Get() *SpatialWorkerConfig {
	configLock.Lock()
	defer configLock.Unlock()
	if workerConfig == nil {
		workerConfig = readSpatialWorkerConfig()
	}
	return workerConfig
}

// Reload forces to reload the whole config
func Reload() *SpatialWorkerConfig {
	configLock.Lock()
	workerConfig = nil
	configLock.Unlock()

	return Get()
}

// GetWorker gets the config of specified worker ID, nil if not found
func GetWorker(workerid int) *WorkerConfig {
	return Get().Workers[workerid]
}

// GetWorkerIDs returns all worker IDs
func GetWorkerIDs() []int {
	cfg := Get()
	ids := make([]int, 0, len(cfg.Workers))
	for id := range cfg.Workers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// GetIDPool returns the id pool config
func GetIDPool() *IDPoolConfig {
	return &Get().IDPool
}

// GetInterest returns the interest config
func GetInterest() *InterestConfig {
	return &Get().Interest
}

// DumpPretty format config to string in pretty format
func DumpPretty(cfg interface{}) string {
	s, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return err.Error()
	}
	return string(s)
}

func readSpatialWorkerConfig() *SpatialWorkerConfig {
	gwlog.Infof("Using config file: %s", configFilePath)
	iniFile, err := ini.Load(configFilePath)
	checkConfigError(err, "")
	return readConfigFromIni(iniFile)
}

// ParseConfig parses config content instead of reading the config file
func ParseConfig(data []byte) *SpatialWorkerConfig {
	iniFile, err := ini.Load(data)
	checkConfigError(err, "")
	return readConfigFromIni(iniFile)
}

func readConfigFromIni(iniFile *ini.File) *SpatialWorkerConfig {
	config := SpatialWorkerConfig{
		Workers: map[int]*WorkerConfig{},
	}
	readWorkerCommonConfig(iniFile.Section("worker_common"), &config.WorkerCommon)
	readIDPoolConfig(iniFile.Section("idpool"), &config.IDPool)
	readInterestConfig(iniFile.Section("interest"), &config.Interest)

	for _, sec := range iniFile.Sections() {
		secName := strings.ToLower(sec.Name())
		if secName == "default" || secName == "worker_common" || secName == "idpool" || secName == "interest" {
			continue
		}

		if len(secName) > len(_WORKER_SECTION_PREFIX) && strings.HasPrefix(secName, _WORKER_SECTION_PREFIX) {
			id, err := strconv.Atoi(secName[len(_WORKER_SECTION_PREFIX):])
			checkConfigError(err, fmt.Sprintf("invalid worker name: %s", secName))
			config.Workers[id] = readWorkerConfig(sec, &config.WorkerCommon)
		} else {
			gwlog.Errorf("unknown section: %s", secName)
		}
	}

	validateConfig(&config)
	return &config
}

func readWorkerCommonConfig(section *ini.Section, wc *WorkerConfig) {
	wc.WorkerType = _DEFAULT_WORKER_TYPE
	wc.LogFile = "worker.log"
	wc.LogStderr = true
	wc.LogLevel = _DEFAULT_LOG_LEVEL
	wc.HTTPIp = _DEFAULT_HTTP_IP
	wc.HTTPPort = 0 // pprof not enabled by default
	wc.SpawnPerTick = consts.DEFAULT_SPAWN_PER_TICK

	_readWorkerConfig(section, wc)
}

func readWorkerConfig(sec *ini.Section, workerCommonConfig *WorkerConfig) *WorkerConfig {
	var wc WorkerConfig = *workerCommonConfig // copy from worker_common
	_readWorkerConfig(sec, &wc)
	if wc.SpawnPerTick <= 0 {
		gwlog.Panicf("%s: spawn_per_tick must be positive", sec.Name())
	}
	return &wc
}

func _readWorkerConfig(sec *ini.Section, wc *WorkerConfig) {
	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "worker_type" {
			wc.WorkerType = key.MustString(wc.WorkerType)
		} else if name == "log_file" {
			wc.LogFile = key.MustString(wc.LogFile)
		} else if name == "log_stderr" {
			wc.LogStderr = key.MustBool(wc.LogStderr)
		} else if name == "log_level" {
			wc.LogLevel = key.MustString(wc.LogLevel)
		} else if name == "http_ip" {
			wc.HTTPIp = key.MustString(wc.HTTPIp)
		} else if name == "http_port" {
			wc.HTTPPort = key.MustInt(wc.HTTPPort)
		} else if name == "gomaxprocs" {
			wc.GoMaxProcs = key.MustInt(wc.GoMaxProcs)
		} else if name == "path_prefix" {
			wc.PathPrefix = key.MustString(wc.PathPrefix)
		} else if name == "spawn_per_tick" {
			wc.SpawnPerTick = key.MustInt(wc.SpawnPerTick)
		} else if name == "rules_file" {
			wc.RulesFile = key.MustString(wc.RulesFile)
		} else if name == "replay_file" {
			wc.ReplayFile = key.MustString(wc.ReplayFile)
		} else {
			gwlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}
}

func readIDPoolConfig(sec *ini.Section, config *IDPoolConfig) {
	config.Type = "memory"
	config.Key = _DEFAULT_IDPOOL_KEY
	config.BlockSize = consts.IDPOOL_DEFAULT_BLOCK_SIZE
	config.LowWatermark = consts.IDPOOL_DEFAULT_LOW_WATERMARK
	config.StartNodes = common.StringSet{}

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "type" {
			config.Type = key.MustString(config.Type)
		} else if name == "url" {
			config.Url = key.MustString(config.Url)
		} else if name == "db" {
			config.DB = key.MustString(config.DB)
		} else if name == "collection" {
			config.Collection = key.MustString(config.Collection)
		} else if name == "key" {
			config.Key = key.MustString(config.Key)
		} else if name == "block_size" {
			config.BlockSize = key.MustInt(config.BlockSize)
		} else if name == "low_watermark" {
			config.LowWatermark = key.MustInt(config.LowWatermark)
		} else if strings.HasPrefix(name, "start_nodes_") {
			config.StartNodes.Add(key.MustString(""))
		} else {
			gwlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}

	switch config.Type {
	case "redis":
		if config.DB == "" {
			config.DB = "0"
		}
	case "mongodb":
		if config.DB == "" {
			config.DB = _DEFAULT_IDPOOL_DB
		}
		if config.Collection == "" {
			config.Collection = _DEFAULT_IDPOOL_COLL
		}
	}

	validateIDPoolConfig(config)
}

func readInterestConfig(sec *ini.Section, config *InterestConfig) {
	config.Frequency = consts.DEFAULT_INTEREST_FREQUENCY
	config.FullSnapshot = true

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "frequency" {
			config.Frequency = key.MustFloat64(config.Frequency)
		} else if name == "full_snapshot" {
			config.FullSnapshot = key.MustBool(config.FullSnapshot)
		} else {
			gwlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}
	if config.Frequency < 0 {
		gwlog.Panicf("interest frequency must not be negative: %v", config.Frequency)
	}
}

func validateIDPoolConfig(config *IDPoolConfig) {
	if config.BlockSize <= 0 {
		gwlog.Panicf("idpool block_size must be positive")
	}
	if config.LowWatermark < 0 || config.LowWatermark >= config.BlockSize {
		gwlog.Panicf("idpool low_watermark must be in [0, block_size)")
	}

	switch config.Type {
	case "memory":
	case "mongodb":
		if config.Url == "" {
			gwlog.Panicf("url is not set in %s idpool config", config.Type)
		}
	case "redis":
		if config.Url == "" {
			gwlog.Panicf("redis host is not set")
		}
		if _, err := strconv.Atoi(config.DB); err != nil {
			gwlog.Panic(errors.Wrap(err, "redis db must be integer"))
		}
	case "redis_cluster":
		if len(config.StartNodes) == 0 {
			gwlog.Panicf("must have at least 1 start_nodes for [idpool].redis_cluster")
		}
		for s := range config.StartNodes {
			if s == "" {
				gwlog.Panicf("start_nodes must not be empty")
			}
		}
	default:
		gwlog.Panicf("unknown idpool type: %s", config.Type)
	}
}

func checkConfigError(err error, msg string) {
	if err != nil {
		if msg == "" {
			msg = err.Error()
		}
		gwlog.Panicf("read config error: %s", msg)
	}
}

func validateConfig(config *SpatialWorkerConfig) {
	workersNum := len(config.Workers)
	if workersNum <= 0 {
		gwlog.Panicf("worker not found in config file, must has at least 1 worker")
	}

	for workerid := 1; workerid <= workersNum; workerid++ {
		if _, ok := config.Workers[workerid]; !ok {
			gwlog.Panicf("found %d workers in config file, but worker%d is not found. workerid must be 1~%d", workersNum, workerid, workersNum)
		}
	}
}
