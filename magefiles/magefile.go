//go:build mage

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/joho/godotenv"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Build は go mod tidy の後に ./bin/hrnet と ./bin/migrate をビルドします。
func Build() error {
	mg.Deps(Tidy)
	fmt.Println(">> Building binaries...")
	if err := sh.Run("go", "build", "-o", "bin/hrnet", "./cmd/hrnet"); err != nil {
		return err
	}
	return sh.Run("go", "build", "-o", "bin/migrate", "./cmd/migrate")
}

// Run はビルドした対話シェルを起動します。
func Run() error {
	mg.Deps(Build)
	return sh.RunV("./bin/hrnet", "repl")
}

// Seed はサンプル社員を 50 件登録します。
func Seed() error {
	return sh.RunV("go", "run", "./cmd/hrnet", "seed", "-n", "50")
}

// Migrate は PostgreSQL に app_state テーブルを作成します。
func Migrate() error {
	return sh.RunV("go", "run", "./cmd/migrate", "up")
}

// Tidy は go mod tidy を実行します。
func Tidy() error {
	fmt.Println(">> go mod tidy...")
	return sh.Run("go", "mod", "tidy")
}

// Test は単体テストを実行します。
func Test() error {
	fmt.Println(">> Running tests...")
	return sh.RunV("go", "test", "./...")
}

// Integration は PostgreSQL を使う結合テストを実行します。
func Integration() error {
	mg.Deps(Migrate)
	return sh.RunV("go", "test", "-tags", "integration", "./test/...")
}

// Lint は golangci-lint があれば実行します。
func Lint() error {
	if _, err := exec.LookPath("golangci-lint"); err != nil {
		fmt.Println(">> golangci-lint not found; skipping.")
		return nil
	}
	return sh.Run("golangci-lint", "run", "./...")
}

// Clean はビルド成果物とローカルデータを削除します。
func Clean() error {
	fmt.Println(">> Cleaning...")
	if err := os.RemoveAll("bin"); err != nil {
		return err
	}
	return os.RemoveAll("data")
}

func init() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("error loading .env file", "err", err)
	}
}
