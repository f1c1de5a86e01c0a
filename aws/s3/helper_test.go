package s3

import "testing"

func TestParseURL(t *testing.T) {
	l, err := ParseURL("s3://my-bucket/datasets/orders.csv.zip", "eu-west-1")
	if err != nil {
		t.Fatal(err)
	}
	if l.Bucket != "my-bucket" || l.Key != "datasets/orders.csv.zip" || l.Region != "eu-west-1" {
		t.Fatalf("unexpected location %+v", l)
	}
	if l.FileName() != "orders.csv.zip" {
		t.Fatalf("expected file name orders.csv.zip; got %q", l.FileName())
	}
	if l.IsPrefix {
		t.Fatal("expected an object key, not a prefix")
	}
	l, err = ParseURL("s3://my-bucket/datasets/2024/", "eu-west-1")
	if err != nil {
		t.Fatal(err)
	}
	if !l.IsPrefix || l.Key != "datasets/2024" {
		t.Fatalf("expected prefix datasets/2024; got %+v", l)
	}
	for _, bad := range []string{"http://my-bucket/key", "s3:///key", "s3://my-bucket/"} {
		if _, err := ParseURL(bad, "eu-west-1"); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
	if _, err := ParseURL("s3://my-bucket/key", ""); err == nil {
		t.Fatal("expected error for missing region")
	}
}
