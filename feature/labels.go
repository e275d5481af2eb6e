package feature

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadLabels reads the labels used to train the segmentation model from the
// given text file.  It should contain one label per line.  Blank lines are
// kept as empty labels so every label stays at its model class index.
func LoadLabels(file string) ([]string, error) {

	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	scanner := bufio.NewScanner(f)

	var labels []string

	for scanner.Scan() {
		labels = append(labels, strings.TrimSpace(scanner.Text()))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return labels, nil
}

// ClassMap translates segmentation model class indices into feature classes
type ClassMap []Class

// NewClassMap builds a ClassMap from model labels in index order.  Labels
// that do not name a known class map to ClassUnknown.
func NewClassMap(labels []string) ClassMap {

	cm := make(ClassMap, len(labels))

	for i, l := range labels {
		c, err := ParseClass(l)

		if err != nil {
			c = ClassUnknown
		}

		cm[i] = c
	}

	return cm
}

// LoadClassMap reads a label file and builds its ClassMap
func LoadClassMap(file string) (ClassMap, error) {

	labels, err := LoadLabels(file)

	if err != nil {
		return nil, err
	}

	return NewClassMap(labels), nil
}

// Class returns the class for a model class index
func (cm ClassMap) Class(idx int) Class {

	if idx < 0 || idx >= len(cm) {
		return ClassUnknown
	}

	return cm[idx]
}
