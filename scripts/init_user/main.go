package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/homesite/internal/config"
	"github.com/homesite/internal/db"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("读取配置失败:", err)
	}

	username := flag.String("username", cfg.SuperRootUserName, "管理员用户名")
	password := flag.String("password", cfg.SuperRootPassword, "管理员密码")
	flag.Parse()

	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "用法: init_user -username admin -password <password>")
		os.Exit(2)
	}

	// 初始化数据库
	gdb, err := db.Open(cfg.DatabasePath, nil)
	if err != nil {
		log.Fatal("数据库初始化失败:", err)
	}
	defer db.Close(gdb)

	if err := db.EnsureUser(gdb, *username, *password); err != nil {
		log.Fatal("创建用户失败:", err)
	}

	fmt.Printf("管理员用户 %s 已就绪\n", *username)
}
