package ibus

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

// Version is reported in the component description.
const Version = "1.0.0"

// ComponentInfo describes the IBus component file.
type ComponentInfo struct {
	BusName    string
	EngineName string
	ExecPath   string
}

// ComponentXML renders the IBus component description for info.
func ComponentXML(info ComponentInfo) string {
	esc := func(s string) string {
		var b bytes.Buffer
		xml.EscapeText(&b, []byte(s))
		return b.String()
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<component>
    <name>%s</name>
    <description>Half-QWERTY one-handed input method</description>
    <exec>%s --ibus</exec>
    <version>%s</version>
    <author>halfqwerty</author>
    <license>MIT</license>
    <textdomain>halfqwerty</textdomain>
    <engines>
        <engine>
            <name>%s</name>
            <language>en</language>
            <license>MIT</license>
            <author>halfqwerty</author>
            <layout>us</layout>
            <longname>Half-QWERTY</longname>
            <description>Type with one hand: hold space to mirror the keyboard</description>
            <rank>0</rank>
            <symbol>½</symbol>
        </engine>
    </engines>
</component>
`, esc(info.BusName), esc(info.ExecPath), Version, esc(info.EngineName))
}

// ComponentPath returns where the component file for engineName lives in dir.
func ComponentPath(dir, engineName string) string {
	return filepath.Join(dir, engineName+".xml")
}

// InstallComponent writes the component file into dir and returns its path.
func InstallComponent(dir string, info ComponentInfo) (string, error) {
	if info.ExecPath == "" {
		exe, err := os.Executable()
		if err != nil {
			return "", fmt.Errorf("locate executable: %w", err)
		}
		info.ExecPath = exe
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create component directory: %w", err)
	}

	path := ComponentPath(dir, info.EngineName)
	if err := os.WriteFile(path, []byte(ComponentXML(info)), 0644); err != nil {
		return "", fmt.Errorf("write component: %w", err)
	}
	return path, nil
}

// UninstallComponent removes the component file. A missing file is not an
// error.
func UninstallComponent(dir, engineName string) error {
	err := os.Remove(ComponentPath(dir, engineName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove component: %w", err)
	}
	return nil
}
