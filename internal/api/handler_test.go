package api

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lockerbox-backend/internal/auth"
	"lockerbox-backend/internal/repository"
	"lockerbox-backend/internal/service"

	"github.com/stretchr/testify/require"
)

// newTestServer monta o stack completo (router + serviços) sobre o store
// em memória e um diretório de uploads temporário
func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	store := repository.NewInMemoryStore()
	disk, err := service.NewDiskLocker(t.TempDir())
	require.NoError(t, err)

	sessions, err := auth.NewSessionManager("segredo-de-teste", time.Hour)
	require.NoError(t, err)

	h := NewHandler(
		service.NewAccountService(store),
		service.NewLockerService(disk),
		sessions,
		time.Hour,
		"http://localhost:3000",
	)

	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv, disk.Root()
}

// newClient retorna um cliente com cookie jar que segue redirects
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

// newNoRedirectClient retorna um cliente que para no primeiro redirect
func newNoRedirectClient(t *testing.T) *http.Client {
	t.Helper()
	c := newClient(t)
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return c
}

func registerAndLogin(t *testing.T, client *http.Client, base, username, password string) {
	t.Helper()

	resp, err := client.PostForm(base+"/register", url.Values{
		"username": {username},
		"password": {password},
	})
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = client.PostForm(base+"/login", url.Values{
		"username": {username},
		"password": {password},
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "/dashboard", resp.Request.URL.Path, "login deve terminar no dashboard")
}

func uploadFile(t *testing.T, client *http.Client, base, filename string, content []byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := client.Post(base+"/dashboard", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestProtectedRoutesRedirectToLogin(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newNoRedirectClient(t)

	for _, path := range []string{"/dashboard", "/download/demo.txt"} {
		resp, err := client.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()

		require.Equal(t, http.StatusSeeOther, resp.StatusCode, "rota: %s", path)
		require.Equal(t, "/login", resp.Header.Get("Location"), "rota: %s", path)
	}
}

func TestIndexRedirects(t *testing.T) {
	srv, _ := newTestServer(t)

	// Sem sessão: / manda para o login
	anon := newNoRedirectClient(t)
	resp, err := anon.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))

	// Com sessão: / manda para o dashboard
	logged := newClient(t)
	registerAndLogin(t, logged, srv.URL, "tester", "secret1")
	logged.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	resp, err = logged.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/dashboard", resp.Header.Get("Location"))
}

func TestRegisterValidationAndDuplicate(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newClient(t)

	// Campos fora das regras: volta para o cadastro com mensagem de erro
	resp, err := client.PostForm(srv.URL+"/register", url.Values{
		"username": {"abc"},
		"password": {"secret1"},
	})
	require.NoError(t, err)
	require.Equal(t, "/register", resp.Request.URL.Path)
	require.Contains(t, readBody(t, resp), "mínimo 4")

	// Cadastro válido termina no login
	resp, err = client.PostForm(srv.URL+"/register", url.Values{
		"username": {"tester"},
		"password": {"secret1"},
	})
	require.NoError(t, err)
	require.Equal(t, "/login", resp.Request.URL.Path)
	readBody(t, resp)

	// Duplicado volta para o cadastro
	resp, err = client.PostForm(srv.URL+"/register", url.Values{
		"username": {"tester"},
		"password": {"outrasenha"},
	})
	require.NoError(t, err)
	require.Equal(t, "/register", resp.Request.URL.Path)
	require.Contains(t, readBody(t, resp), "já existe")
}

func TestLoginFailure(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newClient(t)

	resp, err := client.PostForm(srv.URL+"/register", url.Values{
		"username": {"tester"},
		"password": {"secret1"},
	})
	require.NoError(t, err)
	readBody(t, resp)

	resp, err = client.PostForm(srv.URL+"/login", url.Values{
		"username": {"tester"},
		"password": {"errada!"},
	})
	require.NoError(t, err)
	require.Equal(t, "/login", resp.Request.URL.Path)
	require.Contains(t, readBody(t, resp), "Credenciais inválidas")
}

func TestUploadAndDownload(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newClient(t)
	registerAndLogin(t, client, srv.URL, "tester", "secret1")

	resp := uploadFile(t, client, srv.URL, "demo.txt", []byte("hello"))
	require.Equal(t, "/dashboard", resp.Request.URL.Path)
	require.Contains(t, readBody(t, resp), "demo.txt")

	resp, err := client.Get(srv.URL + "/download/demo.txt")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	require.Equal(t, "hello", readBody(t, resp))
}

func TestUploadDisallowedExtension(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newClient(t)
	registerAndLogin(t, client, srv.URL, "tester", "secret1")

	resp := uploadFile(t, client, srv.URL, "demo.exe", []byte("MZ"))
	body := readBody(t, resp)
	require.Contains(t, body, "não permitida")
	require.NotContains(t, body, "demo.exe")
}

func TestUploadWithoutFilePart(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newClient(t)
	registerAndLogin(t, client, srv.URL, "tester", "secret1")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("outro_campo", "valor"))
	require.NoError(t, mw.Close())

	resp, err := client.Post(srv.URL+"/dashboard", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	require.Contains(t, readBody(t, resp), "Nenhum arquivo")
}

func TestUploadTooLarge(t *testing.T) {
	srv, root := newTestServer(t)
	client := newClient(t)
	registerAndLogin(t, client, srv.URL, "tester", "secret1")

	// Um byte acima do teto global de 16 MiB
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "big.zip")
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte("a"), service.MaxUploadSize+1))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	// O servidor corta a requisição no teto; dependendo do timing o cliente
	// pode ver a conexão fechada antes de ler a resposta
	resp, err := client.Post(srv.URL+"/dashboard", mw.FormDataContentType(), &buf)
	if err == nil {
		readBody(t, resp)
	}

	// Nada foi gravado, nem arquivo parcial
	entries, err := os.ReadDir(filepath.Join(root, "tester"))
	require.NoError(t, err)
	require.Empty(t, entries)

	resp, err = client.Get(srv.URL + "/dashboard")
	require.NoError(t, err)
	require.NotContains(t, readBody(t, resp), "big.zip")
}

func TestCrossUserIsolation(t *testing.T) {
	srv, _ := newTestServer(t)

	clientA := newClient(t)
	registerAndLogin(t, clientA, srv.URL, "usuario_a", "secret1")
	resp := uploadFile(t, clientA, srv.URL, "demo.txt", []byte("hello"))
	readBody(t, resp)

	// Usuário B pede exatamente o mesmo nome de arquivo
	clientB := newClient(t)
	registerAndLogin(t, clientB, srv.URL, "usuario_b", "secret2")

	resp, err := clientB.Get(srv.URL + "/dashboard")
	require.NoError(t, err)
	require.NotContains(t, readBody(t, resp), "demo.txt")

	resp, err = clientB.Get(srv.URL + "/download/demo.txt")
	require.NoError(t, err)
	require.Equal(t, "/dashboard", resp.Request.URL.Path, "download alheio deve cair no dashboard")
	require.NotContains(t, readBody(t, resp), "hello")
}

func TestDownloadTraversalStaysInUserDir(t *testing.T) {
	srv, root := newTestServer(t)
	client := newClient(t)
	registerAndLogin(t, client, srv.URL, "tester", "secret1")

	// Arquivo fora do diretório do usuário
	secret := filepath.Join(root, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("segredo"), 0o600))

	resp, err := client.Get(srv.URL + "/download/" + url.PathEscape("../secret.txt"))
	require.NoError(t, err)
	body := readBody(t, resp)
	require.NotContains(t, body, "segredo")
	require.Equal(t, "/dashboard", resp.Request.URL.Path)
}

func TestLogoutDestroysSession(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newClient(t)
	registerAndLogin(t, client, srv.URL, "tester", "secret1")

	resp, err := client.PostForm(srv.URL+"/logout", nil)
	require.NoError(t, err)
	require.Equal(t, "/login", resp.Request.URL.Path)
	readBody(t, resp)

	// A sessão morreu no servidor: o dashboard volta a redirecionar
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	resp, err = client.Get(srv.URL + "/dashboard")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))
}
