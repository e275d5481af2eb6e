// Package feature defines the skin feature candidates handed to the
// measurement core by the segmentation collaborator.
package feature

import (
	"fmt"
	"strings"
)

// Class is the closed set of feature classes the segmentation model emits
type Class int

const (
	ClassUnknown Class = iota
	ClassComedone
	ClassPapule
	ClassPustule
	ClassNodule
	ClassCyst
	ClassMacule
	ClassScar
)

// classNames maps each Class to its label text
var classNames = [...]string{
	ClassUnknown:  "unknown",
	ClassComedone: "comedone",
	ClassPapule:   "papule",
	ClassPustule:  "pustule",
	ClassNodule:   "nodule",
	ClassCyst:     "cyst",
	ClassMacule:   "macule",
	ClassScar:     "scar",
}

// Classes returns every known class except ClassUnknown
func Classes() []Class {
	return []Class{
		ClassComedone, ClassPapule, ClassPustule, ClassNodule,
		ClassCyst, ClassMacule, ClassScar,
	}
}

// String returns the class label
func (c Class) String() string {

	if c < 0 || int(c) >= len(classNames) {
		return classNames[ClassUnknown]
	}

	return classNames[c]
}

// Raised reports whether the class is expected to stand above the skin
// surface, which is when elevation and volume are meaningful
func (c Class) Raised() bool {
	switch c {
	case ClassPapule, ClassPustule, ClassNodule, ClassCyst:
		return true
	case ClassUnknown, ClassComedone, ClassMacule, ClassScar:
		return false
	}

	return false
}

// ParseClass converts a label into a Class.  Matching ignores case and
// surrounding whitespace; "blackhead" and "whitehead" are accepted as
// comedones.
func ParseClass(label string) (Class, error) {

	l := strings.ToLower(strings.TrimSpace(label))

	switch l {
	case "blackhead", "whitehead", "comedo":
		return ClassComedone, nil
	case "dark_spot", "dark spot", "hyperpigmentation":
		return ClassMacule, nil
	}

	for i, name := range classNames {
		if name == l {
			return Class(i), nil
		}
	}

	return ClassUnknown, fmt.Errorf("unknown feature class %q", label)
}
