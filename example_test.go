package storekit_test

import (
	"context"
	"fmt"

	"github.com/gobeaver/storekit"
	"github.com/gobeaver/storekit/driver/memory"
)

func ExampleParseAddress() {
	addr, err := storekit.ParseAddress("s3://datasets/2024/run-7/")
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(addr.Type, addr.Container, addr.Key)
	// Output:
	// s3 datasets 2024/run-7/
}

func ExampleStoreManager() {
	ctx := context.Background()

	backend := memory.New()
	_ = backend.PutObject("bucket", "base/b.txt", []byte("b"))
	_ = backend.PutObject("bucket", "base/a.txt", []byte("a"))
	_ = backend.PutObject("bucket", "base/logs/1.log", []byte("1"))

	m, _ := storekit.NewManager(storekit.NewObjectStore(backend, nil),
		storekit.WithBasePath("mem://bucket/base"))

	listing, err := m.LS(ctx, "")
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(listing.Dirs)
	fmt.Println(listing.Files)
	// Output:
	// [logs]
	// [a.txt b.txt]
}

func ExampleObjectStore_UploadString() {
	ctx := context.Background()
	store := storekit.NewObjectStore(memory.New(), nil)

	if err := store.UploadString(ctx, "hello", "mem://bucket/greeting"); err != nil {
		fmt.Println("Error:", err)
		return
	}
	err := store.UploadString(ctx, "again", "mem://bucket/greeting")
	fmt.Println(storekit.IsExist(err))

	data, err := store.ReadKey(ctx, "mem://bucket/greeting")
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(string(data))
	// Output:
	// true
	// hello
}

func ExampleGlob() {
	csv := storekit.MustGlob("**/*.csv")
	fmt.Println(csv.Match("exports/2024/q1.csv", nil))
	fmt.Println(csv.Match("exports/readme.md", nil))
	// Output:
	// true
	// false
}

func ExampleNewReadOnlyStore() {
	ctx := context.Background()
	ro := storekit.NewReadOnlyStore(storekit.NewObjectStore(memory.New(), nil))

	err := ro.Delete(ctx, "mem://bucket/anything")
	fmt.Println(storekit.IsReadOnly(err))
	// Output:
	// true
}
