package assets

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestFindProducts(t *testing.T) {
	root := t.TempDir()
	l := NewLayout(root)

	touch(t, filepath.Join(l.Products, "shoe", "2.jpg"))
	touch(t, filepath.Join(l.Products, "shoe", "1.jpg"))
	touch(t, filepath.Join(l.Products, "shoe", ".DS_Store"))
	touch(t, filepath.Join(l.Products, "bag", "front.png"))
	touch(t, filepath.Join(l.Products, "readme.txt"))
	if err := os.MkdirAll(filepath.Join(l.Products, "empty"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(l.Products, "shoe", "nested"), 0755); err != nil {
		t.Fatal(err)
	}

	products, err := FindProducts(l.Products, l.Output)
	if err != nil {
		t.Fatal(err)
	}

	want := []Product{
		{
			Name:   "bag",
			Assets: []string{filepath.Join(l.Products, "bag", "front.png")},
			Output: filepath.Join(root, "output", "bag.mp4"),
		},
		{
			Name: "shoe",
			Assets: []string{
				filepath.Join(l.Products, "shoe", "1.jpg"),
				filepath.Join(l.Products, "shoe", "2.jpg"),
			},
			Output: filepath.Join(root, "output", "shoe.mp4"),
		},
	}
	if !reflect.DeepEqual(products, want) {
		t.Errorf("Got %+v\nwant %+v", products, want)
	}

	only, err := Filter(products, "shoe")
	if err != nil || len(only) != 1 || only[0].Name != "shoe" {
		t.Errorf("Filter: %+v, %v", only, err)
	}
	if _, err := Filter(products, "hat"); !errors.Is(err, ErrNoProducts) {
		t.Errorf("Expected ErrNoProducts, got %v", err)
	}
}

func TestFindProductsErrors(t *testing.T) {
	root := t.TempDir()
	if _, err := FindProducts(filepath.Join(root, "missing"), root); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist, got %v", err)
	}

	file := filepath.Join(root, "products")
	touch(t, file)
	if _, err := FindProducts(file, root); err == nil {
		t.Error("Expected an error for a file instead of a directory")
	}

	empty := filepath.Join(root, "empty")
	os.MkdirAll(empty, 0755)
	if _, err := FindProducts(empty, root); !errors.Is(err, ErrNoProducts) {
		t.Errorf("Expected ErrNoProducts, got %v", err)
	}
}
