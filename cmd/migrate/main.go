// migrate 对目标数据库执行连通性检查并触发表结构迁移。
//
// 表结构由 GORM AutoMigrate 管理，这个工具用于部署流水线中
// 在服务启动前单独跑迁移：
//
//	migrate            # 使用环境配置执行迁移
//	migrate -check     # 只做连通性检查，不改表结构
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"dispomail/backend/internal/config"
	"dispomail/backend/internal/storage/postgres"
)

func main() {
	checkOnly := flag.Bool("check", false, "只检查数据库连通性")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	var driver string
	switch cfg.Database.Type {
	case "mysql":
		driver = "mysql"
	case "postgres", "postgresql":
		driver = "postgres"
	default:
		log.Fatalf("需要配置数据库（DISPOMAIL_DATABASE_TYPE），当前: %q", cfg.Database.Type)
	}

	if err := ping(driver, cfg.Database.DSN); err != nil {
		log.Fatalf("数据库连通性检查失败: %v", err)
	}
	fmt.Println("数据库连通性检查通过")

	if *checkOnly {
		return
	}

	var store *postgres.Store
	if driver == "mysql" {
		store, err = postgres.NewMySQLStore(cfg.Database.DSN)
	} else {
		store, err = postgres.NewStore(cfg.Database.DSN)
	}
	if err != nil {
		log.Fatalf("迁移失败: %v", err)
	}
	defer store.Close()

	fmt.Println("表结构迁移完成")
}

func ping(driver, dsn string) error {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	db.SetConnMaxLifetime(time.Minute)
	return db.Ping()
}
