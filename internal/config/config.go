package config

import (
	"fmt"
	"os"
	"strings"
)

// 起動時に投入するユーザー（username:passwordの組）。
type SeedUser struct {
	Username string
	Password string
}

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL string // 接続URL。あればPOSTGRES_*より優先

	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     string // DBポート（5432）
	PostgresSSLMode  string // sslmode（disable）

	JWTSecret string // JWT署名シークレット

	UploadDir string // 商品画像の保存先

	GoEnv string // dev/prod

	AdminUsers []SeedUser // 利用者（セルフ登録なし）
}

// Loadは環境変数
func Load() (Config, error) {
	cfg := Config{
		Port: getenv("PORT", "8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     getenv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		UploadDir: getenv("UPLOAD_DIR", "uploads"),

		GoEnv: getenv("GO_ENV", "dev"),
	}

	//必須チェック（DATABASE_URL利用時はPOSTGRES_*を省略できる）
	if cfg.DatabaseURL == "" {
		if cfg.PostgresUser == "" {
			return Config{}, fmt.Errorf("POSTGRES_USER is required")
		}
		if cfg.PostgresPassword == "" {
			return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
		}
		if cfg.PostgresDB == "" {
			return Config{}, fmt.Errorf("POSTGRES_DB is required")
		}
		if cfg.PostgresHost == "" {
			return Config{}, fmt.Errorf("POSTGRES_HOST is required")
		}
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	users, err := parseAdminUsers(os.Getenv("ADMIN_USERS"))
	if err != nil {
		return Config{}, err
	}
	cfg.AdminUsers = users

	return cfg, nil
}

// ADMIN_USERS="admin:pass1,manager:pass2" をパースする
func parseAdminUsers(s string) ([]SeedUser, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("ADMIN_USERS is required")
	}

	var users []SeedUser
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, pass, ok := strings.Cut(pair, ":")
		if !ok || name == "" || pass == "" {
			return nil, fmt.Errorf("ADMIN_USERS must be user:password pairs")
		}
		users = append(users, SeedUser{Username: name, Password: pass})
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("ADMIN_USERS is required")
	}
	return users, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
