// Package images mantém um cache local das fotos dos anúncios acompanhados,
// para que elas sobrevivam à desativação do anúncio no site.
package images

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Store salva e recupera imagens de anúncios em disco
type Store struct {
	dir    string
	client *http.Client
}

// NewStore cria o cache no diretório informado
func NewStore(dir string) *Store {
	return &Store{
		dir:    dir,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *Store) path(adID int64, index int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d_%d.jpg", adID, index))
}

// Download baixa as imagens do anúncio para o cache. Imagens já baixadas
// não são baixadas de novo; falhas individuais só geram log.
func (s *Store) Download(adID int64, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	for i, u := range urls {
		dest := s.path(adID, i)
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		if err := s.download(u, dest); err != nil {
			log.Printf("Falha ao baixar imagem %d do anúncio %d: %v", i, adID, err)
		}
	}
	return nil
}

func (s *Store) download(url, dest string) error {
	resp, err := s.client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	tmp := dest + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}

// Local lista os caminhos das imagens do anúncio no cache, na ordem em que
// foram salvas
func (s *Store) Local(adID int64) []string {
	var paths []string
	for i := 0; ; i++ {
		p := s.path(adID, i)
		if _, err := os.Stat(p); err != nil {
			break
		}
		paths = append(paths, p)
	}
	return paths
}

// Has diz se o anúncio tem ao menos uma imagem no cache
func (s *Store) Has(adID int64) bool {
	_, err := os.Stat(s.path(adID, 0))
	return err == nil
}

// Remove apaga as imagens do anúncio do cache
func (s *Store) Remove(adID int64) {
	for _, p := range s.Local(adID) {
		if err := os.Remove(p); err != nil {
			log.Printf("Falha ao remover %s: %v", p, err)
		}
	}
}
