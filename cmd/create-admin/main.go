// create-admin 引导创建管理员账号。
//
// 管理权限完全由管理员成员表决定，系统上线后第一个管理员
// 无法通过 API 授予，用这个工具直接写入：
//
//	create-admin -email admin@example.com -password <密码>
//
// 账号已存在时只补写成员资格，不会覆盖密码。
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"dispomail/backend/internal/config"
	"dispomail/backend/internal/domain"
	"dispomail/backend/internal/storage"
	"dispomail/backend/internal/storage/postgres"
)

func main() {
	email := flag.String("email", "", "管理员邮箱")
	password := flag.String("password", "", "管理员密码（仅创建新账号时使用）")
	flag.Parse()

	if *email == "" {
		log.Fatal("必须指定 -email")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	var store storage.Store
	switch cfg.Database.Type {
	case "mysql":
		store, err = postgres.NewMySQLStore(cfg.Database.DSN)
	case "postgres", "postgresql":
		store, err = postgres.NewStore(cfg.Database.DSN)
	default:
		log.Fatalf("需要配置数据库（DISPOMAIL_DATABASE_TYPE），当前: %q", cfg.Database.Type)
	}
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	defer store.Close()

	normalized := domain.NormalizeAddress(*email)
	user, err := store.GetUserByEmail(normalized)
	switch {
	case err == nil:
		fmt.Printf("账号已存在: %s\n", user.ID)
	case errors.Is(err, storage.ErrUserNotFound):
		if *password == "" {
			log.Fatal("创建新账号必须指定 -password")
		}
		if err := domain.ValidatePassword(*password); err != nil {
			log.Fatalf("密码不合法: %v", err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("密码哈希失败: %v", err)
		}

		user = &domain.User{
			ID:           uuid.New().String(),
			Email:        normalized,
			PasswordHash: string(hash),
			Plan:         domain.PlanPro,
			IsActive:     true,
			CreatedAt:    time.Now().UTC(),
			UpdatedAt:    time.Now().UTC(),
		}
		if err := store.CreateUser(user); err != nil {
			log.Fatalf("创建账号失败: %v", err)
		}
		fmt.Printf("账号已创建: %s\n", user.ID)
	default:
		log.Fatalf("查询账号失败: %v", err)
	}

	if err := store.AddAdministrator(&domain.Administrator{
		UserID:    user.ID,
		GrantedBy: "bootstrap",
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		log.Fatalf("写入管理员成员资格失败: %v", err)
	}
	fmt.Printf("管理员已授权: %s\n", normalized)
}
