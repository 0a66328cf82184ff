package auth

import "strings"

// loginSuccessHtml is the page shown in the browser after a successful
// authorization callback.
const loginSuccessHtml = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Signed in to Skein</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            background: linear-gradient(135deg, #5b4b8a 0%, #3f7cac 100%);
        }
        .container {
            text-align: center;
            background: white;
            padding: 3rem;
            border-radius: 12px;
            box-shadow: 0 10px 30px rgba(0, 0, 0, 0.2);
            max-width: 500px;
        }
        .success-icon {
            width: 64px;
            height: 64px;
            background: #4caf50;
            border-radius: 50%;
            display: flex;
            align-items: center;
            justify-content: center;
            margin: 0 auto 1.5rem;
        }
        .checkmark {
            color: white;
            font-size: 32px;
            font-weight: bold;
        }
        h1 {
            color: #333;
            margin-bottom: 0.5rem;
            font-size: 1.6rem;
        }
        p {
            color: #666;
            line-height: 1.5;
        }
        .hint {
            margin-top: 1.5rem;
            padding: 0.75rem 1rem;
            background: #f4f2fa;
            border-radius: 8px;
            color: #5b4b8a;
            font-size: 0.9rem;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="success-icon">
            <div class="checkmark">&#10003;</div>
        </div>
        <h1>Signed in to Skein</h1>
        <p>Authentication complete. You can close this window and return to your terminal.</p>
        <div class="hint">The Skein CLI is finishing the sign-in for you.</div>
    </div>
</body>
</html>`

// loginErrorHtml is the page shown in the browser when the authorization
// callback cannot be accepted. {{ERROR_TITLE}} and {{ERROR_MESSAGE}} are
// replaced before serving.
const loginErrorHtml = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Skein sign-in failed</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            background: linear-gradient(135deg, #8a4b5b 0%, #ac3f53 100%);
        }
        .container {
            text-align: center;
            background: white;
            padding: 3rem;
            border-radius: 12px;
            box-shadow: 0 10px 30px rgba(0, 0, 0, 0.2);
            max-width: 500px;
        }
        .error-icon {
            width: 64px;
            height: 64px;
            background: #e53935;
            border-radius: 50%;
            display: flex;
            align-items: center;
            justify-content: center;
            margin: 0 auto 1.5rem;
        }
        .cross {
            color: white;
            font-size: 32px;
            font-weight: bold;
        }
        h1 {
            color: #333;
            margin-bottom: 0.5rem;
            font-size: 1.6rem;
        }
        p {
            color: #666;
            line-height: 1.5;
        }
        .hint {
            margin-top: 1.5rem;
            padding: 0.75rem 1rem;
            background: #faf2f2;
            border-radius: 8px;
            color: #8a4b5b;
            font-size: 0.9rem;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="error-icon">
            <div class="cross">&#10005;</div>
        </div>
        <h1>{{ERROR_TITLE}}</h1>
        <p>{{ERROR_MESSAGE}}</p>
        <div class="hint">Return to your terminal and run the login command again.</div>
    </div>
</body>
</html>`

// notFoundHtml is served for any path other than the callback endpoint. The
// local server exists only to receive the single authorization callback.
const notFoundHtml = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Skein sign-in</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            background: #f4f2fa;
        }
        .container {
            text-align: center;
            background: white;
            padding: 3rem;
            border-radius: 12px;
            box-shadow: 0 10px 30px rgba(0, 0, 0, 0.1);
            max-width: 500px;
        }
        h1 {
            color: #333;
            font-size: 1.4rem;
        }
        p {
            color: #666;
            line-height: 1.5;
        }
    </style>
</head>
<body>
    <div class="container">
        <h1>Nothing to see here</h1>
        <p>This temporary server only handles the Skein sign-in callback. Finish signing in from your browser, or close this window.</p>
    </div>
</body>
</html>`

// renderErrorPage fills the error template with a title and message.
func renderErrorPage(title, message string) string {
	page := strings.Replace(loginErrorHtml, "{{ERROR_TITLE}}", title, 1)
	page = strings.Replace(page, "{{ERROR_MESSAGE}}", message, 1)
	return page
}
