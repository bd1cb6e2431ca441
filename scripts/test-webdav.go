package main

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Println("Использование: go run test-webdav.go <url> <login> <password>")
		fmt.Println("Пример: go run test-webdav.go https://webdav.example.com/backup user secret")
		os.Exit(1)
	}

	baseURL := os.Args[1]
	login := os.Args[2]
	password := os.Args[3]

	client := &http.Client{Timeout: 15 * time.Second}

	fmt.Printf("Проверка WebDAV сервера %s...\n", baseURL)

	// Проверяем доступность сервера
	req, err := http.NewRequest(http.MethodOptions, baseURL, nil)
	if err != nil {
		log.Fatalf("Ошибка запроса: %v", err)
	}
	req.SetBasicAuth(login, password)

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("Ошибка подключения: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		log.Fatalf("Сервер отверг учётные данные (HTTP %d)", resp.StatusCode)
	}
	fmt.Println("✓ Подключение успешно!")

	// Пробуем записать тестовый файл
	target := baseURL + "/webdav-test.txt"
	body := []byte("webdav connection test")

	req, err = http.NewRequest(http.MethodPut, target, bytes.NewReader(body))
	if err != nil {
		log.Fatalf("Ошибка запроса: %v", err)
	}
	req.SetBasicAuth(login, password)
	req.ContentLength = int64(len(body))

	resp, err = client.Do(req)
	if err != nil {
		log.Fatalf("Ошибка записи файла: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Fatalf("Сервер не принял файл (HTTP %d)", resp.StatusCode)
	}
	fmt.Printf("✓ Тестовый файл записан: %s\n", target)

	// Удаляем тестовый файл за собой
	req, err = http.NewRequest(http.MethodDelete, target, nil)
	if err != nil {
		log.Fatalf("Ошибка запроса: %v", err)
	}
	req.SetBasicAuth(login, password)

	resp, err = client.Do(req)
	if err != nil {
		log.Fatalf("Ошибка удаления файла: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		fmt.Println("✓ Тестовый файл удалён")
	} else {
		fmt.Printf("! Не удалось удалить тестовый файл (HTTP %d), удалите его вручную\n", resp.StatusCode)
	}

	fmt.Println("\nСервер готов к работе!")
}
