package crawler

import (
	"reflect"
	"testing"
)

// --- LinkSet Tests ---

func TestLinkSet_Add(t *testing.T) {
	s := NewLinkSet()

	if !s.Add("/listing/1") {
		t.Error("Add() should return true for new href")
	}
	if s.Add("/listing/1") {
		t.Error("Add() should return false for duplicate href")
	}
	if s.Add("/listing/1#gallery") {
		t.Error("Add() should ignore the fragment when deduplicating")
	}
	if s.Len() != 1 {
		t.Errorf("expected length 1, got %d", s.Len())
	}
}

func TestLinkSet_Add_Invalid(t *testing.T) {
	s := NewLinkSet()

	if s.Add("") {
		t.Error("Add() should reject empty href")
	}
	if s.Add("://invalid") {
		t.Error("Add() should reject unparseable href")
	}
}

func TestLinkSet_AddAll_PreservesOrder(t *testing.T) {
	s := NewLinkSet()

	added := s.AddAll([]string{"/c", "/a", "/c", "/b"})
	if added != 3 {
		t.Errorf("expected 3 new hrefs, got %d", added)
	}

	want := []string{"/c", "/a", "/b"}
	if got := s.Links(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if !s.Contains("/a") || s.Contains("/d") {
		t.Error("Contains() returned wrong result")
	}
}

func TestLinkSet_Links_ReturnsCopy(t *testing.T) {
	s := NewLinkSet()
	s.Add("/a")

	links := s.Links()
	links[0] = "/mutated"

	if s.Links()[0] != "/a" {
		t.Error("Links() should return a copy")
	}
}
