// Package main is the interactive selfcare client. It drives the
// account-recovery flow, interactive login with optional credential
// caching, and biometric unlock against a running selfcare server.
package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/movitel/selfcare/internal/client/api"
	"github.com/movitel/selfcare/internal/client/biometric"
	"github.com/movitel/selfcare/internal/client/recovery"
	"github.com/movitel/selfcare/internal/client/vault"
	"github.com/movitel/selfcare/internal/document"
	"github.com/movitel/selfcare/internal/logger"
)

var (
	version   string
	buildDate string
)

// terminalPlatform stands in for the device biometric API, confirming
// the challenge on stdin.
type terminalPlatform struct {
	scanner *bufio.Scanner
}

func (t *terminalPlatform) HasHardware() (bool, error)   { return true, nil }
func (t *terminalPlatform) HasEnrollment() (bool, error) { return true, nil }
func (t *terminalPlatform) Modalities() ([]biometric.Modality, error) {
	return []biometric.Modality{biometric.ModalityFingerprint}, nil
}

func (t *terminalPlatform) Challenge(ctx context.Context, label string) (biometric.ChallengeResult, error) {
	fmt.Printf("%s — confirmar? (s/n): ", label)
	if !t.scanner.Scan() {
		return biometric.ChallengeResult{CancelReason: "input_closed"}, nil
	}
	answer := strings.TrimSpace(strings.ToLower(t.scanner.Text()))
	if answer != "s" {
		return biometric.ChallengeResult{CancelReason: "user_cancel"}, nil
	}
	return biometric.ChallengeResult{Success: true}, nil
}

// deviceKey loads the per-device key material, generating it on first
// run.
func deviceKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}
	key = make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, key, 0600); err != nil {
		return nil, err
	}
	return key, nil
}

// session bundles the collaborators the shell commands operate on.
type session struct {
	client  *api.Client
	vault   *vault.Vault
	gate    *biometric.Gate
	machine *recovery.Machine
	scanner *bufio.Scanner
}

func (s *session) prompt(label string) string {
	fmt.Print(label)
	if !s.scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(s.scanner.Text())
}

// login performs an interactive login and offers to cache the
// credential for biometric unlock.
func (s *session) login() {
	identifier := s.prompt("CPF/CNPJ: ")
	if remembered, ok := s.vault.Remembered(); ok && identifier == "" {
		identifier = remembered
		fmt.Println("usando documento lembrado:", identifier)
	}
	password := s.prompt("Senha: ")

	resp, err := s.client.Login(context.Background(), document.OnlyDigits(identifier), password)
	if err != nil {
		fmt.Println("login falhou:", err)
		return
	}
	fmt.Printf("Bem-vindo(a), %s!\n", resp.Name)

	if s.prompt("Lembrar documento? (s/n): ") == "s" {
		s.vault.SetRemembered(document.OnlyDigits(identifier))
	}
	if s.gate.Available() && s.prompt("Ativar login por biometria? (s/n): ") == "s" {
		if s.vault.SaveCredential(document.OnlyDigits(identifier), password) {
			fmt.Println("Credencial protegida por", s.gate.Label())
		}
	}
}

// bioLogin unlocks the cached credential behind a biometric challenge
// and logs in silently.
func (s *session) bioLogin() {
	cred := s.gate.Authenticate(context.Background())
	if cred == nil {
		fmt.Println("Biometria indisponível, cancelada ou sem credencial salva")
		return
	}
	resp, err := s.client.Login(context.Background(), cred.Identifier, cred.Secret)
	if err != nil {
		fmt.Println("login falhou:", err)
		return
	}
	fmt.Printf("Bem-vindo(a), %s!\n", resp.Name)
}

// recoverPassword drives the machine through the full recovery flow.
func (s *session) recoverPassword() {
	if err := s.machine.Begin(); err != nil {
		fmt.Println("não foi possível iniciar a recuperação:", err)
		return
	}
	defer func() {
		if s.machine.Mode() != recovery.ModeLogin {
			s.machine.Cancel()
		}
	}()

	raw := s.prompt("CPF/CNPJ: ")
	typ := document.TypeCPF
	if len(document.OnlyDigits(raw)) == document.CNPJLength {
		typ = document.TypeCNPJ
	}

	result, err := s.machine.SubmitDocument(context.Background(), raw, typ)
	if err != nil {
		switch {
		case !result.FormatValid:
			fmt.Println("Documento inválido:", result.ErrorMessage)
		case result.HasActiveLine:
			fmt.Println("Documento já possui linha ativa")
		case result.ServerChecked && !result.HasAccount && result.ErrorMessage == "":
			fmt.Println("Documento não encontrado — crie uma conta primeiro")
		default:
			fmt.Println("Falha na verificação:", result.ErrorMessage)
		}
		return
	}
	fmt.Println("Token enviado por SMS")

	if !s.enterToken() {
		return
	}

	for {
		password := s.prompt("Nova senha: ")
		confirmation := s.prompt("Confirme a senha: ")
		err := s.machine.SubmitPassword(context.Background(), password, confirmation)
		switch {
		case err == nil:
			fmt.Println("Senha alterada com sucesso")
			return
		case errors.Is(err, recovery.ErrPasswordTooShort), errors.Is(err, recovery.ErrPasswordMismatch):
			fmt.Println(err)
		case errors.Is(err, recovery.ErrLockedOut):
			fmt.Println("Conta bloqueada por excesso de tentativas. Entre em contato com o suporte.")
			return
		default:
			fmt.Println("Falha ao alterar a senha, tente novamente:", err)
		}
	}
}

// enterToken collects the six digits through the token buffer and
// submits until validated, locked out, or abandoned.
func (s *session) enterToken() bool {
	input := recovery.NewTokenInput()
	for {
		line := s.prompt(fmt.Sprintf("Token (%d/%d dígitos, 'apagar' volta, vazio cancela): ",
			input.Focus(), recovery.TokenLength))
		switch line {
		case "":
			return false
		case "apagar":
			input.Delete()
			continue
		}
		for i := 0; i < len(line); i++ {
			input.Insert(line[i])
		}
		if !input.Complete() {
			continue
		}

		err := s.machine.SubmitToken(context.Background(), input.String())
		switch {
		case err == nil:
			input.Reset()
			return true
		case errors.Is(err, recovery.ErrLockedOut):
			fmt.Println("Conta bloqueada por excesso de tentativas. Entre em contato com o suporte.")
			return false
		default:
			fmt.Println("Token recusado, tente novamente:", err)
			input.Reset()
		}
	}
}

// repl runs the interactive shell loop.
func (s *session) repl() {
	for {
		fmt.Print("selfcare> ")
		if !s.scanner.Scan() {
			break
		}
		switch strings.TrimSpace(s.scanner.Text()) {
		case "help":
			fmt.Println("Available commands: help, login, bio, recover, forget, exit")
		case "login":
			s.login()
		case "bio":
			s.bioLogin()
		case "recover":
			s.recoverPassword()
		case "forget":
			s.vault.RemoveCredential()
			s.vault.ClearRemembered()
			fmt.Println("Credenciais removidas")
		case "exit":
			fmt.Println("Bye")
			return
		case "":
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

func main() {
	var (
		baseURL     string
		caFile      string
		osName      string
		storagePath string
		keyPath     string
		showVer     bool
	)

	flag.StringVar(&baseURL, "url", "http://localhost:8080", "server base URL")
	flag.StringVar(&caFile, "ca", "", "path to CA cert for server pinning (optional)")
	flag.StringVar(&osName, "os", "android", "platform for biometric label priority: android | ios")
	flag.StringVar(&storagePath, "storage", "secure.json", "path to the secure storage file")
	flag.StringVar(&keyPath, "key", "device.key", "path to the device key file")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("Selfcare Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	zlog := logger.New()
	defer func() { _ = zlog.Log.Sync() }()
	if err := zlog.Init("Warn"); err != nil {
		log.Fatal(err)
	}

	httpClient, err := api.NewHTTPClient(caFile, 10*time.Second)
	if err != nil {
		log.Fatal(err)
	}
	client := api.New(httpClient, baseURL, zlog.Log)

	key, err := deviceKey(keyPath)
	if err != nil {
		log.Fatal(err)
	}
	aead, err := vault.NewAEADFromKey(key)
	if err != nil {
		log.Fatal(err)
	}
	credVault := vault.New(vault.NewFileStore(storagePath, aead), zlog.Log)

	scanner := bufio.NewScanner(os.Stdin)
	gate := biometric.NewGate(&terminalPlatform{scanner: scanner}, credVault, osName, zlog.Log)
	machine := recovery.New(client, zlog.Log)

	s := &session{
		client:  client,
		vault:   credVault,
		gate:    gate,
		machine: machine,
		scanner: scanner,
	}
	s.repl()
}
