package config

import (
	"io/ioutil"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
// Содержит секции EventBus, Sync, Server, World и Presence.

type Config struct {
	EventBus EventBusConfig `yaml:"eventbus"`
	Sync     SyncConfig     `yaml:"sync"`
	Server   ServerConfig   `yaml:"server"`
	World    WorldConfig    `yaml:"world"`
	Presence PresenceConfig `yaml:"presence"`
}

// WorldConfig points at the on-disk save directory and the terrain-gen
// subprocess binary cmd/server spawns once at startup.
type WorldConfig struct {
	SaveRoot       string `yaml:"save_root"`
	TerrainGenPath string `yaml:"terraingen_path"`
}

// PresenceConfig configures the optional Redis-backed presence registry;
// when RedisAddr is empty, cmd/server runs with a nil (no-op) registry.
type PresenceConfig struct {
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	NodeID        string `yaml:"node_id"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

type SyncConfig struct {
	RegionID     string `yaml:"region_id"`
	BatchSize    int    `yaml:"batch_size"`
	FlushEvery   int    `yaml:"flush_every_seconds"`
	UseGzipCompr bool   `yaml:"use_gzip_compression"`
}

type ServerConfig struct {
	TCPPort     int `yaml:"tcp_port"`
	UDPPort     int `yaml:"udp_port"`
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// GetTCPPort возвращает TCP порт с поддержкой fallback значений
func (s *ServerConfig) GetTCPPort() int {
	return getPortWithEnvFallback(s.TCPPort, "GAME_TCP_PORT", 7777)
}

// GetUDPPort возвращает UDP порт с поддержкой fallback значений
func (s *ServerConfig) GetUDPPort() int {
	return getPortWithEnvFallback(s.UDPPort, "GAME_UDP_PORT", 7778)
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "GAME_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "GAME_METRICS_PORT", 2112)
}

// GetSaveRoot returns the save directory root with config -> env -> default priority.
func (w *WorldConfig) GetSaveRoot() string {
	return getStringWithEnvFallback(w.SaveRoot, "GAME_SAVE_ROOT", "./save-data")
}

// GetTerrainGenPath returns the terrain-gen subprocess binary path.
func (w *WorldConfig) GetTerrainGenPath() string {
	return getStringWithEnvFallback(w.TerrainGenPath, "GAME_TERRAINGEN_PATH", "./terraingen")
}

// GetRedisAddr returns the presence Redis address, or "" if presence
// tracking is disabled.
func (p *PresenceConfig) GetRedisAddr() string {
	return getStringWithEnvFallback(p.RedisAddr, "GAME_PRESENCE_REDIS_ADDR", "")
}

// GetNodeID returns this process's node identity for presence records.
func (p *PresenceConfig) GetNodeID() string {
	return getStringWithEnvFallback(p.NodeID, "GAME_NODE_ID", "node-1")
}

func getStringWithEnvFallback(configVal, envVar, defaultVal string) string {
	if configVal != "" {
		return configVal
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return defaultVal
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV GAME_CONFIG или возвращает nil, nil.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("GAME_CONFIG")
		if path == "" {
			return nil, nil // конфиг не задан — использовать дефолты
		}
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
