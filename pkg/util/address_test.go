package util

import "testing"

func TestNormalizeAddress(t *testing.T) {
    got := NormalizeAddress(" 0xABCdef0123456789ABCdef0123456789ABCdef01 ")
    want := "0xabcdef0123456789abcdef0123456789abcdef01"
    if got != want {
        t.Fatalf("got %q want %q", got, want)
    }
}

func TestNormalizeAddressPassthrough(t *testing.T) {
    if got := NormalizeAddress("lido"); got != "lido" {
        t.Fatalf("got %q", got)
    }
}

func TestIsHexAddress(t *testing.T) {
    if !IsHexAddress("0xabcdef0123456789abcdef0123456789abcdef01") {
        t.Fatalf("expected valid")
    }
    if IsHexAddress("0xzzcdef0123456789abcdef0123456789abcdef01") {
        t.Fatalf("expected invalid hex")
    }
    if IsHexAddress("0xabc") {
        t.Fatalf("expected invalid length")
    }
}
