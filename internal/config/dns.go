package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/radarlink/radarlink/models"
)

// dnsFile is the on-disk shape of the DNS profiles file.
type dnsFile struct {
	DNSList []models.DNSProfile `json:"dns_list"`
}

// DNSList holds the user-selectable DNS profiles loaded from a JSON file.
//
// Readers always observe a complete, immutable snapshot: Reload parses the
// file into a fresh slice and swaps an atomic pointer, so a reload racing a
// read can never expose a half-updated list.
type DNSList struct {
	path    string
	current atomic.Pointer[[]models.DNSProfile]
}

// NewDNSList loads the profiles at path and returns the list handle.
// Returns an error if the file cannot be read or parsed, or if any profile
// is missing a name or a resolver address.
func NewDNSList(path string) (*DNSList, error) {
	d := &DNSList{path: path}
	if _, err := d.Reload(); err != nil {
		return nil, err
	}

	return d, nil
}

// NewStaticDNSList returns a list with a fixed snapshot and no backing
// file, for deployments without a profiles file. Reload fails and keeps
// the snapshot in place.
func NewStaticDNSList(profiles []models.DNSProfile) *DNSList {
	d := &DNSList{}
	d.current.Store(&profiles)

	return d
}

// Profiles returns the current snapshot. The returned slice must be treated
// as read-only; it is shared by all callers until the next Reload.
func (d *DNSList) Profiles() []models.DNSProfile {
	p := d.current.Load()
	if p == nil {
		return nil
	}

	return *p
}

// Profile returns the profile at idx in the current snapshot, or false when
// idx is out of range. Indexes are only meaningful against one snapshot; a
// stale index after a reload simply misses.
func (d *DNSList) Profile(idx int) (models.DNSProfile, bool) {
	profiles := d.Profiles()
	if idx < 0 || idx >= len(profiles) {
		return models.DNSProfile{}, false
	}

	return profiles[idx], true
}

// Reload re-reads the file and atomically replaces the snapshot.
// On any error the previous snapshot stays in place.
func (d *DNSList) Reload() ([]models.DNSProfile, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return nil, fmt.Errorf("error reading dns profiles file: %w", err)
	}

	var f dnsFile
	if err = json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("error decoding dns profiles file: %w", err)
	}

	for _, p := range f.DNSList {
		if p.Name == "" || p.Primary == "" || p.Secondary == "" {
			return nil, fmt.Errorf("dns profile %q: %w", p.Name, ErrInvalidDNSProfile)
		}
	}

	profiles := f.DNSList
	d.current.Store(&profiles)

	return profiles, nil
}
