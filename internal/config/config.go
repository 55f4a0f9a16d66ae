package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Database struct {
		Path string
	}
	Auth struct {
		JWTSecret         string
		SessionTTLMinutes int
		LockoutThreshold  int
		LockoutSeconds    int
		RateLimitRPS      int
		RateLimitBurst    int
	}
	Game struct {
		Simon struct {
			Easy   SimonLevel
			Medium SimonLevel
			Hard   SimonLevel
		}
		Memory struct {
			EasyPairs   int
			MediumPairs int
			HardPairs   int
			Columns     int
			MediumAt    int
			HardAt      int
		}
	}
}

// SimonLevel overrides one difficulty's board size and run length.
type SimonLevel struct {
	Pads      int
	MaxRounds int
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("ARCADE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("database.path", "data/arcade.db")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.sessionttlminutes", 120)
	v.SetDefault("auth.lockoutthreshold", 3)
	v.SetDefault("auth.lockoutseconds", 60)
	v.SetDefault("auth.ratelimitrps", 5)
	v.SetDefault("auth.ratelimitburst", 10)

	// canonical game tuning; earlier revisions shipped other round counts
	v.SetDefault("game.simon.easy.pads", 4)
	v.SetDefault("game.simon.easy.maxrounds", 10)
	v.SetDefault("game.simon.medium.pads", 5)
	v.SetDefault("game.simon.medium.maxrounds", 15)
	v.SetDefault("game.simon.hard.pads", 6)
	v.SetDefault("game.simon.hard.maxrounds", 20)
	v.SetDefault("game.memory.easypairs", 4)
	v.SetDefault("game.memory.mediumpairs", 6)
	v.SetDefault("game.memory.hardpairs", 8)
	v.SetDefault("game.memory.columns", 4)
	v.SetDefault("game.memory.mediumat", 20)
	v.SetDefault("game.memory.hardat", 50)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func loadDotEnv() {
	file, err := os.Open(".env")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
