package accounts

// Account はサインアップ済みのユーザーです。ID は作成後に変わりません。
type Account struct {
	ID         string
	Email      string
	Credential *Credential
}

// Credential はアカウントに 1:1 で紐づくパスワード情報です。
// 認証処理の外に出してはいけません。
type Credential struct {
	Hash string
	Salt string
}
