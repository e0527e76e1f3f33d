package stitching

import (
	"reflect"
	"testing"

	"github.com/kirillkom/profile-export/internal/core/domain"
)

func TestReconcilePadsShortContinuation(t *testing.T) {
	anchor := []string{"Beginn", "Ende", "Unternehmen", "Bezeichnung", "Allg Beschreibung"}
	rows := [][]string{{"2010", "2015", "Firma KG"}}

	cols, got := Reconcile(rows, anchor)
	if !reflect.DeepEqual(cols, anchor) {
		t.Fatalf("columns = %v, want anchor %v", cols, anchor)
	}
	want := [][]string{{"2010", "2015", "Firma KG", "", ""}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("rows = %v, want %v", got, want)
	}
}

func TestReconcileTruncatesLongContinuation(t *testing.T) {
	anchor := []string{"A", "B"}
	rows := [][]string{{"1", "2", "lost"}, {"3"}}

	_, got := Reconcile(rows, anchor)
	want := [][]string{{"1", "2"}, {"3", ""}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("rows = %v, want %v", got, want)
	}
}

func TestReconcileWithoutAnchorUsesPositionalNames(t *testing.T) {
	cols, got := Reconcile([][]string{{"a", "b"}, {"c"}}, nil)
	if !reflect.DeepEqual(cols, []string{"col_0", "col_1"}) {
		t.Fatalf("columns = %v", cols)
	}
	if !reflect.DeepEqual(got, [][]string{{"a", "b"}, {"c", ""}}) {
		t.Fatalf("rows = %v", got)
	}
}

func TestReconcileDoesNotShareAnchorSlice(t *testing.T) {
	anchor := []string{"A"}
	cols, _ := Reconcile([][]string{{"x"}}, anchor)
	cols[0] = "changed"
	if anchor[0] != "A" {
		t.Fatalf("anchor mutated through reconciled labels")
	}
}

func TestHeaderLabels(t *testing.T) {
	vocab := domain.DefaultVocabulary()
	got := headerLabels([]string{" Name ", "", "Name", "None"}, vocab.Blank)
	want := []string{"Name", "col_1", "Name_2", "col_3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("headerLabels() = %v, want %v", got, want)
	}

	got = headerLabels([]string{"A", "A", "A_2"}, vocab.Blank)
	want = []string{"A", "A_2", "A_2_2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("headerLabels() with suffix clash = %v, want %v", got, want)
	}
}
