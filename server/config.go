package server

import (
	"fmt"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Config 服务进程的运行配置
type Config struct {
	GameAddr string // TCP 对局端口
	HTTPAddr string // HTTP 观察端口
	LogFile  string
	LogLevel string
}

// LoadConfig 读取 properties/<env>.properties 并套上缺省值
// env 为空时只用缺省值；键也可经环境变量覆盖（前缀 GRIDDUEL_）
func LoadConfig(env string) (Config, error) {
	v := viper.New()
	v.SetDefault("GAME_ADDR", ":5000")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_FILE", "app.log")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetEnvPrefix("GRIDDUEL")
	v.AutomaticEnv()

	if env != "" {
		v.SetConfigName(fmt.Sprintf("%s/%s", "properties", env))
		v.SetConfigType("properties")
		v.AddConfigPath("./")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", env, err)
		}
	}

	return Config{
		GameAddr: cast.ToString(v.Get("GAME_ADDR")),
		HTTPAddr: cast.ToString(v.Get("HTTP_ADDR")),
		LogFile:  cast.ToString(v.Get("LOG_FILE")),
		LogLevel: cast.ToString(v.Get("LOG_LEVEL")),
	}, nil
}
