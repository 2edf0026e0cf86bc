// Package assets enumerates the products of a target directory.
package assets

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var ErrNoProducts = errors.New("no products found")

// Product is one video to render: the files of a product directory.
type Product struct {
	Name   string
	Assets []string
	Output string
}

// Layout names the directories of a target directory.
type Layout struct {
	Template string
	Products string
	Output   string
}

func NewLayout(targetDir string) Layout {
	return Layout{
		Template: filepath.Join(targetDir, "template"),
		Products: filepath.Join(targetDir, "products"),
		Output:   filepath.Join(targetDir, "output"),
	}
}

// FindProducts lists every sub-directory of productDir that holds at least
// one visible regular file. Products and their assets are sorted by name.
func FindProducts(productDir, outputDir string) ([]Product, error) {
	fi, err := os.Stat(productDir)
	if err != nil {
		return nil, fmt.Errorf("product directory: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("product directory %s is not a directory", productDir)
	}

	entries, err := os.ReadDir(productDir)
	if err != nil {
		return nil, err
	}

	var products []Product
	for _, e := range entries {
		if !e.IsDir() {
			log.Printf("[!] Пропускаем %s: не директория", e.Name())
			continue
		}
		dir := filepath.Join(productDir, e.Name())
		files, err := listFiles(dir)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			log.Printf("[!] Пропускаем %s: нет файлов", e.Name())
			continue
		}
		products = append(products, Product{
			Name:   e.Name(),
			Assets: files,
			Output: filepath.Join(outputDir, e.Name()+".mp4"),
		})
	}

	if len(products) == 0 {
		return nil, fmt.Errorf("%s: %w", productDir, ErrNoProducts)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") || !e.Type().IsRegular() {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Filter keeps the product called name. An empty name keeps everything.
func Filter(products []Product, name string) ([]Product, error) {
	if name == "" {
		return products, nil
	}
	for _, p := range products {
		if p.Name == name {
			return []Product{p}, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", name, ErrNoProducts)
}
