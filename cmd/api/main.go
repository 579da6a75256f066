package main

import (
	"context"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/logger"
	"app/internal/server"
	"app/internal/upload"
	"app/internal/usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type jwtIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func (i *jwtIssuer) Issue(username string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)

	claims := jwt.MapClaims{
		"sub": username,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func main() {
	//.envは無くてもよい（本番は環境変数だけ）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.GoEnv)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal("db connect failed", zap.Error(err))
	}
	if err := gormDB.AutoMigrate(
		&model.Product{},
		&model.ProductLog{},
		&model.User{},
	); err != nil {
		log.Fatal("migrate failed", zap.Error(err))
	}

	//Repository（GORM実装）生成
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	logRepo := infraRepo.NewProductLogGormRepository(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)

	//bcrypt（起動時seed：Hash / ログイン：Verify）
	hasher := usecase.NewBcryptPasswordHasher(12)
	verifier := usecase.NewBcryptPasswordVerifier()

	//設定済みユーザーを投入（セルフ登録はない）
	ctx := context.Background()
	for _, su := range cfg.AdminUsers {
		existing, err := userRepo.FindByUsername(ctx, su.Username)
		if err != nil {
			log.Fatal("seed user lookup failed", zap.String("username", su.Username), zap.Error(err))
		}
		if existing != nil {
			continue
		}
		hash, err := hasher.Hash(su.Password)
		if err != nil {
			log.Fatal("seed user hash failed", zap.String("username", su.Username), zap.Error(err))
		}
		if err := userRepo.Create(ctx, &model.User{Username: su.Username, PasswordHash: hash}); err != nil {
			log.Fatal("seed user create failed", zap.String("username", su.Username), zap.Error(err))
		}
		log.Info("seeded user", zap.String("username", su.Username))
	}

	//画像の受付（検証+保存）
	gate := upload.NewGate(cfg.UploadDir)

	//JWT issuer
	issuer := &jwtIssuer{secret: []byte(cfg.JWTSecret), accessTTL: 8 * time.Hour}

	//Usecase生成
	productUC := usecase.NewProductUsecase(productRepo, logRepo, gate, log)
	authUC := usecase.NewAuthUsecase(userRepo, verifier, issuer)

	//Handler生成
	authH := handler.NewAuthHandler(authUC)
	productH := handler.NewProductHandler(productUC, gate)
	logH := handler.NewProductLogHandler(productUC)

	//Server起動
	e := server.New(cfg, authH, productH, logH)
	addr := ":" + cfg.Port

	log.Info("starting server", zap.String("addr", addr))
	if err := server.Start(e, addr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
