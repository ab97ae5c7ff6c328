// Command hash-passwords reads the users workbook, hashes the CONTRASEÑA
// column with bcrypt into HASH_CONTRASEÑA and writes the result to a new
// workbook the dashboard can log in against.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	"ccpp/internal/amqp"
	"ccpp/internal/auth"
	"ccpp/internal/cli"
	"ccpp/internal/config"
	"ccpp/internal/log"
	"ccpp/internal/sheets/file"
)

func main() {
	in := flag.String("in", "usuarios.xlsx", "users workbook holding plaintext passwords")
	out := flag.String("out", "usuarios_actualizado.xlsx", "workbook to write with hashed passwords")
	dropPlain := flag.Bool("drop-plaintext", false, "omit the CONTRASEÑA column from the output")
	notify := flag.Bool("notify", false, "publish a reload message for the output when AMQP_URL is set")
	flag.Parse()

	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store := file.New("")
	users, err := store.ReadTable(ctx, *in)
	if err != nil {
		logger.Error("Failed to read users workbook", log.FieldError, err, log.FieldSource, *in)
		os.Exit(1)
	}

	hashed, n, err := auth.HashPasswordColumn(users, auth.HashOptions{DropPlaintext: *dropPlain})
	if err != nil {
		logger.Error("Failed to hash passwords", log.FieldError, err, log.FieldSource, *in)
		os.Exit(1)
	}

	if err := store.WriteTable(ctx, *out, hashed); err != nil {
		logger.Error("Failed to write users workbook", log.FieldError, err, log.FieldSource, *out)
		os.Exit(1)
	}
	logger.Info("El archivo con contraseñas cifradas se ha generado",
		log.FieldSource, *out, log.FieldRows, len(hashed.Rows), "hashed", n)

	if !*notify {
		return
	}
	if !cfg.AMQPEnabled() {
		logger.Warn("Reload notification skipped, AMQP_URL is not set")
		return
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()
	if err := client.PublishReload(ctx, filepath.Base(*out), "hash-passwords"); err != nil {
		logger.Error("Failed to publish reload message", log.FieldError, err)
		os.Exit(1)
	}
}
